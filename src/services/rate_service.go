package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/fleetledger/src/logger"
	"github.com/username/fleetledger/src/models"
	"golang.org/x/time/rate"
)

// nbpRatesResponse is the NBP exchange-rate API payload; the first entry of
// rates is the mid-market rate for today.
type nbpRatesResponse struct {
	Rates []struct {
		Mid float64 `json:"mid"`
	} `json:"rates"`
}

// nbpTables are tried in order for each currency before giving up.
var nbpTables = []string{"a", "b"}

type nbpRateServiceImpl struct {
	httpClient http.Client
	baseURL    string
	memo       *cache.Cache
	limiter    *rate.Limiter
}

// NewNBPRateService talks to the NBP exchange-rate API. Lookups are paced to
// stay polite with the public endpoint and memoized per currency and day.
func NewNBPRateService(baseURL string, timeout time.Duration) RateService {
	return &nbpRateServiceImpl{
		httpClient: http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		memo:       cache.New(cache.NoExpiration, cache.NoExpiration),
		limiter:    rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
}

// fetchPLNRate resolves one currency's PLN mid rate, trying both NBP tables.
func (s *nbpRateServiceImpl) fetchPLNRate(currency string) (float64, error) {
	code := strings.ToLower(strings.TrimSpace(currency))
	if code == "" {
		return 0, fmt.Errorf("empty currency code")
	}
	memoKey := fmt.Sprintf("pln/%s/%s", code, time.Now().Format("2006-01-02"))
	if v, found := s.memo.Get(memoKey); found {
		return v.(float64), nil
	}

	var lastErr error
	for _, table := range nbpTables {
		if err := s.limiter.Wait(context.Background()); err != nil {
			return 0, err
		}
		url := fmt.Sprintf("%s/api/exchangerates/rates/%s/%s/?format=json", s.baseURL, table, code)
		resp, err := s.httpClient.Get(url)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("NBP table %s returned status %d for %s", table, resp.StatusCode, code)
			continue
		}
		var payload nbpRatesResponse
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if len(payload.Rates) == 0 {
			lastErr = fmt.Errorf("NBP table %s has no rates for %s", table, code)
			continue
		}
		mid := payload.Rates[0].Mid
		s.memo.Set(memoKey, mid, cache.NoExpiration)
		return mid, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("currency %s not found in any NBP table", code)
	}
	return 0, lastErr
}

func (s *nbpRateServiceImpl) EURBase() (float64, error) {
	base, err := s.fetchPLNRate("EUR")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBaseRateUnavailable, err)
	}
	return base, nil
}

func (s *nbpRateServiceImpl) RateToEUR(currency string) (float64, error) {
	base, err := s.EURBase()
	if err != nil {
		return 0, err
	}
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "EUR":
		return 1.0, nil
	case "PLN":
		return 1.0 / base, nil
	}
	pln, err := s.fetchPLNRate(currency)
	if err != nil {
		return 0, err
	}
	return pln / base, nil
}

// RatesFor resolves a batch of currencies. EUR and PLN never hit the remote
// endpoint; a currency that fails both tables degrades to 0.0 and is listed
// in the result rather than failing the run.
func (s *nbpRateServiceImpl) RatesFor(currencies []string) (models.RateSet, error) {
	base, err := s.EURBase()
	if err != nil {
		return models.RateSet{}, err
	}
	set := models.RateSet{ToEUR: map[string]float64{
		"EUR": 1.0,
		"PLN": 1.0 / base,
	}}
	for _, currency := range currencies {
		code := strings.ToUpper(strings.TrimSpace(currency))
		if code == "" {
			continue
		}
		if _, done := set.ToEUR[code]; done {
			continue
		}
		pln, err := s.fetchPLNRate(code)
		if err != nil {
			logger.L.Warn("rate resolution degraded to 0.0", "currency", code, "error", err)
			set.ToEUR[code] = 0.0
			set.Degraded = append(set.Degraded, code)
			continue
		}
		set.ToEUR[code] = pln / base
	}
	sort.Strings(set.Degraded)
	return set, nil
}

func (s *nbpRateServiceImpl) ClearCache() {
	s.memo.Flush()
}

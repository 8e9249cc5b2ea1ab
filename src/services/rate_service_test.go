package services

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/username/fleetledger/src/logger"
)

func init() {
	logger.InitLogger("error")
}

// fakeNBP serves the exchange-rate API shape: table "a" quotes EUR and PLN
// majors, table "b" quotes exotics, anything else is 404.
func fakeNBP(t *testing.T, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	quotes := map[string]float64{
		"a/eur": 4.30,
		"b/czk": 0.172,
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		// .../api/exchangerates/rates/{table}/{code}
		if len(parts) < 5 {
			http.NotFound(w, r)
			return
		}
		key := parts[3] + "/" + parts[4]
		mid, ok := quotes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"table":"%s","currency":"x","code":"%s","rates":[{"no":"1","effectiveDate":"2025-01-05","mid":%v}]}`,
			parts[3], strings.ToUpper(parts[4]), mid)
	}))
}

func TestRateToEUR(t *testing.T) {
	var requests atomic.Int64
	srv := fakeNBP(t, &requests)
	defer srv.Close()
	s := NewNBPRateService(srv.URL, 2*time.Second)

	eur, err := s.RateToEUR("EUR")
	if err != nil || eur != 1.0 {
		t.Errorf("RateToEUR(EUR) = (%v, %v), want (1, nil)", eur, err)
	}

	pln, err := s.RateToEUR("PLN")
	if err != nil {
		t.Fatalf("RateToEUR(PLN): %v", err)
	}
	if math.Abs(pln-1/4.30) > 1e-12 {
		t.Errorf("RateToEUR(PLN) = %v, want 1/4.30", pln)
	}

	// CZK is 404 in table a and quoted in table b.
	czk, err := s.RateToEUR("CZK")
	if err != nil {
		t.Fatalf("RateToEUR(CZK): %v", err)
	}
	if math.Abs(czk-0.172/4.30) > 1e-12 {
		t.Errorf("RateToEUR(CZK) = %v, want 0.172/4.30", czk)
	}
}

func TestRatesForDegradesUnknownCurrency(t *testing.T) {
	var requests atomic.Int64
	srv := fakeNBP(t, &requests)
	defer srv.Close()
	s := NewNBPRateService(srv.URL, 2*time.Second)

	set, err := s.RatesFor([]string{"CZK", "XXX", "EUR", "pln"})
	if err != nil {
		t.Fatalf("RatesFor: %v", err)
	}

	if set.ToEUR["EUR"] != 1.0 {
		t.Errorf("EUR rate = %v, want 1", set.ToEUR["EUR"])
	}
	if math.Abs(set.ToEUR["PLN"]-1/4.30) > 1e-12 {
		t.Errorf("PLN rate = %v, want 1/4.30", set.ToEUR["PLN"])
	}
	if set.ToEUR["XXX"] != 0.0 {
		t.Errorf("unknown currency rate = %v, want degraded 0.0", set.ToEUR["XXX"])
	}
	if len(set.Degraded) != 1 || set.Degraded[0] != "XXX" {
		t.Errorf("Degraded = %v, want [XXX]", set.Degraded)
	}
}

func TestRateMemoization(t *testing.T) {
	var requests atomic.Int64
	srv := fakeNBP(t, &requests)
	defer srv.Close()
	s := NewNBPRateService(srv.URL, 2*time.Second)

	if _, err := s.RateToEUR("PLN"); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	after := requests.Load()
	for i := 0; i < 3; i++ {
		if _, err := s.RateToEUR("PLN"); err != nil {
			t.Fatalf("repeat lookup: %v", err)
		}
	}
	if got := requests.Load(); got != after {
		t.Errorf("repeat lookups hit the endpoint %d extra times, want 0", got-after)
	}

	s.ClearCache()
	if _, err := s.RateToEUR("PLN"); err != nil {
		t.Fatalf("post-flush lookup: %v", err)
	}
	if got := requests.Load(); got == after {
		t.Error("ClearCache should force a fresh endpoint hit")
	}
}

func TestEURBaseUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()
	s := NewNBPRateService(srv.URL, 2*time.Second)

	if _, err := s.EURBase(); !errors.Is(err, ErrBaseRateUnavailable) {
		t.Errorf("err = %v, want ErrBaseRateUnavailable", err)
	}
	if _, err := s.RateToEUR("CZK"); !errors.Is(err, ErrBaseRateUnavailable) {
		t.Errorf("RateToEUR without base: err = %v, want ErrBaseRateUnavailable", err)
	}
	if _, err := s.RatesFor([]string{"CZK"}); !errors.Is(err, ErrBaseRateUnavailable) {
		t.Errorf("RatesFor without base: err = %v, want ErrBaseRateUnavailable", err)
	}
}

package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/fleetledger/src/config"
	"github.com/username/fleetledger/src/database"
	"github.com/username/fleetledger/src/logger"
	"github.com/username/fleetledger/src/models"
	"github.com/username/fleetledger/src/parsers"
	"github.com/username/fleetledger/src/parsers/subiekt"
	"github.com/username/fleetledger/src/processors"
	"github.com/username/fleetledger/src/tabular"
	"github.com/username/fleetledger/src/utils"
)

const (
	ckExpenseReport = "expense_%s_%s_%s"
	ckReinvoice     = "reinvoice_%s_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type reportServiceImpl struct {
	cfg         *config.DomainConfig
	rates       RateService
	registry    *parsers.Registry
	ledger      *subiekt.Parser
	attributor  *processors.Attributor
	reportCache *cache.Cache
}

func NewReportService(
	cfg *config.DomainConfig,
	rates RateService,
	registry *parsers.Registry,
	ledger *subiekt.Parser,
	attributor *processors.Attributor,
	reportCache *cache.Cache,
) ReportService {
	return &reportServiceImpl{
		cfg:         cfg,
		rates:       rates,
		registry:    registry,
		ledger:      ledger,
		attributor:  attributor,
		reportCache: reportCache,
	}
}

func (s *reportServiceImpl) InvalidateCache() {
	s.reportCache.Flush()
	s.rates.ClearCache()
}

// fetchStoredTransactions loads the company's window from the store. For the
// secondary company the window also includes fuel-card rows the primary paid
// for secondary-fleet vehicles: those are shared costs.
func (s *reportServiceImpl) fetchStoredTransactions(company string, from, to time.Time) ([]models.CanonicalTransaction, error) {
	query := `SELECT timestamp, raw_identifier, vehicle, amount_net, amount_gross, currency, quantity, category, product_label, source_system, country, company_tag, counterparty, original_amount, original_currency FROM transactions WHERE timestamp >= ? AND timestamp <= ?`
	args := []interface{}{
		from.Format(storedTimestampLayout),
		to.Add(24*time.Hour - time.Second).Format(storedTimestampLayout),
	}

	secondary := company == s.cfg.SecondaryCompany.Name
	if secondary {
		placeholders := strings.Repeat("?,", len(models.CardSources))
		query += fmt.Sprintf(" AND (company_tag = ? OR (source_system IN (%s) AND company_tag = ?))",
			strings.TrimRight(placeholders, ","))
		args = append(args, company)
		for _, src := range models.CardSources {
			args = append(args, src)
		}
		args = append(args, s.cfg.PrimaryCompany.Name)
	} else {
		query += " AND company_tag = ?"
		args = append(args, company)
	}
	query += " ORDER BY timestamp ASC, id ASC"

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for %s: %w", company, err)
	}
	defer rows.Close()

	var txs []models.CanonicalTransaction
	for rows.Next() {
		var tx models.CanonicalTransaction
		var ts string
		if err := rows.Scan(&ts, &tx.RawIdentifier, &tx.CanonicalVehicleID, &tx.AmountNet,
			&tx.AmountGross, &tx.Currency, &tx.Quantity, &tx.Category, &tx.ProductLabel,
			&tx.SourceSystem, &tx.Country, &tx.CompanyTag, &tx.Counterparty,
			&tx.OriginalAmount, &tx.OriginalCurrency); err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}
		if tx.Timestamp, err = time.Parse(storedTimestampLayout, ts); err != nil {
			continue
		}
		tx.OwningCompany = s.attributor.Attribute(&tx)
		if secondary && tx.CompanyTag != company && tx.OwningCompany != company {
			// A shared card row the secondary does not actually own.
			continue
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// toEUR converts the reporting amounts in place, preserving the source
// figures. Currencies that fail rate resolution multiply by zero, and the
// degraded list in the returned RateSet carries that fact to the caller.
func (s *reportServiceImpl) toEUR(txs []models.CanonicalTransaction) ([]models.CanonicalTransaction, models.RateSet, error) {
	seen := make(map[string]bool)
	var currencies []string
	for _, tx := range txs {
		code := strings.ToUpper(strings.TrimSpace(tx.Currency))
		if code != "" && code != "EUR" && !seen[code] {
			seen[code] = true
			currencies = append(currencies, code)
		}
	}
	rateSet, err := s.rates.RatesFor(currencies)
	if err != nil {
		return nil, models.RateSet{}, err
	}

	out := make([]models.CanonicalTransaction, 0, len(txs))
	for _, tx := range txs {
		code := strings.ToUpper(strings.TrimSpace(tx.Currency))
		if code == "EUR" {
			out = append(out, tx)
			continue
		}
		factor := rateSet.ToEUR[code]
		if tx.OriginalCurrency == "" {
			tx.OriginalAmount = tx.AmountGross
			tx.OriginalCurrency = tx.Currency
		}
		tx.AmountNet *= factor
		tx.AmountGross *= factor
		tx.Currency = "EUR"
		out = append(out, tx)
	}
	return out, rateSet, nil
}

func (s *reportServiceImpl) ExpenseReport(company string, from, to time.Time) (*models.ExpenseReport, error) {
	cacheKey := fmt.Sprintf(ckExpenseReport, company, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("expense report served from cache", "company", company)
		return cached.(*models.ExpenseReport), nil
	}

	stored, err := s.fetchStoredTransactions(company, from, to)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, ErrNoData
	}
	txs, rateSet, err := s.toEUR(stored)
	if err != nil {
		return nil, err
	}

	report := &models.ExpenseReport{
		Company: company,
		From:    from,
		To:      to,
		Rates:   rateSet,
		Fuel:    buildCategoryReport(models.CategoryFuel, txs, true),
		Tolls:   buildCategoryReport(models.CategoryToll, txs, false),
		Other:   buildCategoryReport(models.CategoryOther, txs, false),
	}
	s.reportCache.Set(cacheKey, report, DefaultCacheExpiration)
	return report, nil
}

func buildCategoryReport(category string, txs []models.CanonicalTransaction, withCountries bool) models.CategoryReport {
	report := models.CategoryReport{Category: category}
	vehicles := make(map[string]*models.VehicleExpense)
	countries := make(map[string]*models.CountryExpense)

	for _, tx := range txs {
		if tx.Category != category {
			continue
		}
		report.TotalEUR += tx.AmountGross
		report.Details = append(report.Details, tx)

		ve, ok := vehicles[tx.CanonicalVehicleID]
		if !ok {
			ve = &models.VehicleExpense{Vehicle: tx.CanonicalVehicleID}
			vehicles[tx.CanonicalVehicleID] = ve
		}
		ve.NetEUR += tx.AmountNet
		ve.GrossEUR += tx.AmountGross
		switch tx.ProductLabel {
		case "Diesel":
			ve.LitersDiesel += tx.Quantity
		case "AdBlue":
			ve.LitersAdBlue += tx.Quantity
		}

		if withCountries {
			country := tx.Country
			if country == "" {
				country = "Nieznany"
			}
			ce, ok := countries[country]
			if !ok {
				ce = &models.CountryExpense{Country: country}
				countries[country] = ce
			}
			ce.NetEUR += tx.AmountNet
			ce.GrossEUR += tx.AmountGross
			ce.VATEUR += tx.AmountGross - tx.AmountNet
		}
	}

	report.TotalEUR = utils.RoundFloat(report.TotalEUR, 2)
	for _, ve := range vehicles {
		ve.NetEUR = utils.RoundFloat(ve.NetEUR, 2)
		ve.GrossEUR = utils.RoundFloat(ve.GrossEUR, 2)
		ve.LitersDiesel = utils.RoundFloat(ve.LitersDiesel, 2)
		ve.LitersAdBlue = utils.RoundFloat(ve.LitersAdBlue, 2)
		report.Vehicles = append(report.Vehicles, *ve)
	}
	sort.Slice(report.Vehicles, func(i, j int) bool {
		return report.Vehicles[i].GrossEUR > report.Vehicles[j].GrossEUR
	})
	for _, ce := range countries {
		ce.NetEUR = utils.RoundFloat(ce.NetEUR, 2)
		ce.GrossEUR = utils.RoundFloat(ce.GrossEUR, 2)
		ce.VATEUR = utils.RoundFloat(ce.VATEUR, 2)
		report.Countries = append(report.Countries, *ce)
	}
	sort.Slice(report.Countries, func(i, j int) bool {
		return report.Countries[i].GrossEUR > report.Countries[j].GrossEUR
	})
	return report
}

// parseStatement turns the uploaded analysis file into ledger transactions.
// The primary company's statement is the accounting pivot export; the
// secondary company ships a plain invoicing export instead.
func (s *reportServiceImpl) parseStatement(statement UploadedFile, company string, from, to time.Time) ([]models.CanonicalTransaction, error) {
	if company == s.cfg.SecondaryCompany.Name {
		_, txs, err := s.registry.DetectAndNormalize(statement.Data, statement.Name, company)
		if err != nil {
			return nil, err
		}
		var windowed []models.CanonicalTransaction
		for _, tx := range txs {
			if tx.Timestamp.Before(from) || tx.Timestamp.After(to.Add(24*time.Hour-time.Second)) {
				continue
			}
			windowed = append(windowed, tx)
		}
		if len(windowed) == 0 {
			return nil, ErrNoData
		}
		converted, _, err := s.toEUR(windowed)
		return converted, err
	}

	grids, err := tabular.Read(statement.Data, statement.Name)
	if err != nil {
		return nil, err
	}
	var captions []string
	for _, iso := range s.cfg.Ledger.CurrencyCaptions {
		captions = append(captions, iso)
	}
	rateSet, err := s.rates.RatesFor(captions)
	if err != nil {
		return nil, err
	}
	txs, err := s.ledger.Parse(grids, rateSet.ToEUR, from, to)
	if err == subiekt.ErrNoData {
		return nil, ErrNoData
	}
	return txs, err
}

func (s *reportServiceImpl) ProfitabilityReport(statement UploadedFile, company string, from, to time.Time) (*models.ProfitabilityReport, error) {
	ledgerTxs, err := s.parseStatement(statement, company, from, to)
	if err != nil {
		return nil, err
	}

	stored, err := s.fetchStoredTransactions(company, from, to)
	if err != nil {
		return nil, err
	}
	operational, _, err := s.toEUR(stored)
	if err != nil {
		return nil, err
	}

	vehicles := processors.BuildProfitability(ledgerTxs, operational, s.cfg.Ledger.FinalDropBlacklist)
	report := &models.ProfitabilityReport{
		Company:  company,
		From:     from,
		To:       to,
		Vehicles: vehicles,
	}
	for _, vp := range vehicles {
		report.TotalGross += vp.GrossProfit
		report.TotalNet += vp.NetProfit
	}
	report.TotalGross = utils.RoundFloat(report.TotalGross, 2)
	report.TotalNet = utils.RoundFloat(report.TotalNet, 2)

	reinvoice, err := s.ReinvoiceReport(from, to)
	if err == nil {
		report.Reinvoicing = reinvoice
	} else if err != ErrNoData {
		return nil, err
	}
	return report, nil
}

// ReinvoiceReport walks every stored row in the window, from both companies,
// and buckets the cross-fleet ones into the two directional transfers.
func (s *reportServiceImpl) ReinvoiceReport(from, to time.Time) (*models.ReinvoiceReport, error) {
	cacheKey := fmt.Sprintf(ckReinvoice, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.ReinvoiceReport), nil
	}

	var all []models.CanonicalTransaction
	for _, company := range s.cfg.Companies() {
		txs, err := s.fetchStoredTransactions(company, from, to)
		if err != nil {
			return nil, err
		}
		for _, tx := range txs {
			if tx.CompanyTag == company {
				all = append(all, tx)
			}
		}
	}
	if len(all) == 0 {
		return nil, ErrNoData
	}
	converted, _, err := s.toEUR(all)
	if err != nil {
		return nil, err
	}

	report := processors.BuildReinvoice(s.attributor, converted)
	report.From = from
	report.To = to
	s.reportCache.Set(cacheKey, report, DefaultCacheExpiration)
	return report, nil
}

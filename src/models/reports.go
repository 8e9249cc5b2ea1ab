package models

import "time"

// FileResult is the per-file outcome of an import batch. Degraded outcomes
// (unrecognized format, zero rows) are carried as values so callers can
// assert on them instead of scraping logs.
type FileResult struct {
	FileName   string `json:"file_name"`
	Source     string `json:"source,omitempty"`
	RowCount   int    `json:"row_count"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
	Warning    string `json:"warning,omitempty"`
}

// ImportResult aggregates one import batch.
type ImportResult struct {
	BatchID string       `json:"batch_id"`
	Company string       `json:"company"`
	Files   []FileResult `json:"files"`
}

// RateSet is the outcome of one batch rate resolution. Degraded lists the
// currencies that resolved to 0.0 after both NBP tables failed.
type RateSet struct {
	ToEUR    map[string]float64 `json:"to_eur"`
	Degraded []string           `json:"degraded,omitempty"`
}

// CountryExpense is one row of the per-country fuel breakdown.
type CountryExpense struct {
	Country  string  `json:"country"`
	NetEUR   float64 `json:"net_eur"`
	VATEUR   float64 `json:"vat_eur"`
	GrossEUR float64 `json:"gross_eur"`
}

// VehicleExpense sums one vehicle's spending within a category.
type VehicleExpense struct {
	Vehicle      string  `json:"vehicle"`
	NetEUR       float64 `json:"net_eur"`
	GrossEUR     float64 `json:"gross_eur"`
	LitersDiesel float64 `json:"liters_diesel,omitempty"`
	LitersAdBlue float64 `json:"liters_adblue,omitempty"`
}

// CategoryReport is one tab of the expense report (fuel, tolls, other).
type CategoryReport struct {
	Category  string                 `json:"category"`
	TotalEUR  float64                `json:"total_eur"`
	Vehicles  []VehicleExpense       `json:"vehicles"`
	Countries []CountryExpense       `json:"countries,omitempty"`
	Details   []CanonicalTransaction `json:"details,omitempty"`
}

// ExpenseReport covers one company and date window.
type ExpenseReport struct {
	Company string           `json:"company"`
	From    time.Time        `json:"from"`
	To      time.Time        `json:"to"`
	Rates   RateSet          `json:"rates"`
	Fuel    CategoryReport   `json:"fuel"`
	Tolls   CategoryReport   `json:"tolls"`
	Other   CategoryReport   `json:"other"`
}

// VehicleProfit is one row of the profitability report. The identity
// GrossProfit = RevenueGross - LedgerCostGross - OperationalCostGross holds
// exactly, including vehicles present on only one side of the join.
type VehicleProfit struct {
	Vehicle              string  `json:"vehicle"`
	MainCounterparty     string  `json:"main_counterparty,omitempty"`
	RevenueNet           float64 `json:"revenue_net"`
	RevenueGross         float64 `json:"revenue_gross"`
	LedgerCostNet        float64 `json:"ledger_cost_net"`
	LedgerCostGross      float64 `json:"ledger_cost_gross"`
	OperationalCostNet   float64 `json:"operational_cost_net"`
	OperationalCostGross float64 `json:"operational_cost_gross"`
	NetProfit            float64 `json:"net_profit"`
	GrossProfit          float64 `json:"gross_profit"`
}

// ReinvoiceLine is one vehicle's directional cross-charge subtotal.
type ReinvoiceLine struct {
	Vehicle  string  `json:"vehicle"`
	NetEUR   float64 `json:"net_eur"`
	GrossEUR float64 `json:"gross_eur"`
	Rows     int     `json:"rows"`
}

// ReinvoiceReport holds both directional transfers. No netting between the
// directions is performed; that is a presentation decision.
type ReinvoiceReport struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	PrimaryToSec  []ReinvoiceLine `json:"primary_to_secondary"`
	SecToPrimary  []ReinvoiceLine `json:"secondary_to_primary"`
	TotalPriToSec float64         `json:"total_primary_to_secondary_gross"`
	TotalSecToPri float64         `json:"total_secondary_to_primary_gross"`
}

// ProfitabilityReport is the full profitability run output.
type ProfitabilityReport struct {
	Company     string          `json:"company"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Vehicles    []VehicleProfit `json:"vehicles"`
	TotalGross  float64         `json:"total_gross_profit"`
	TotalNet    float64         `json:"total_net_profit"`
	Reinvoicing *ReinvoiceReport `json:"reinvoicing,omitempty"`
}

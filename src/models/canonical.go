package models

import "time"

// Transaction categories. REVENUE and COST come only from invoicing and
// ledger sources, the rest from fuel-card exports.
const (
	CategoryFuel    = "FUEL"
	CategoryToll    = "TOLL"
	CategoryOther   = "OTHER"
	CategoryRevenue = "REVENUE"
	CategoryCost    = "COST"
)

// UnknownVehicle is the sentinel canonical id for identifiers that could not
// be resolved to a vehicle. The Polish literal is kept so rows stored by the
// previous exporter keep joining.
const UnknownVehicle = "Brak Identyfikatora"

// NoCounterparty marks ledger rows without a counterparty context line.
const NoCounterparty = "Brak Kontrahenta"

// CanonicalTransaction is the unified representation of one real-world
// charge. Every normalizer and the ledger parser emit these; they are never
// mutated after creation except for OwningCompany, which the attribution
// resolver fills on a copy during report runs.
type CanonicalTransaction struct {
	// --- Populated by the normalizer / ledger parser ---
	Timestamp     time.Time `json:"timestamp"`
	RawIdentifier string    `json:"raw_identifier"`
	// CanonicalVehicleID is the cleaned join key, or UnknownVehicle.
	CanonicalVehicleID string  `json:"canonical_vehicle_id"`
	AmountNet          float64 `json:"amount_net"`
	AmountGross        float64 `json:"amount_gross"`
	Currency           string  `json:"currency"`
	// Quantity is liters for fuel rows, 1 otherwise.
	Quantity     float64 `json:"quantity"`
	Category     string  `json:"category"`
	ProductLabel string  `json:"product_label"`
	SourceSystem string  `json:"source_system"`
	Country      string  `json:"country"`
	// CompanyTag is the company the upload was filed under (caller hint).
	CompanyTag string `json:"company_tag"`
	// Counterparty is present only for invoicing/ledger sourced rows.
	Counterparty string `json:"counterparty,omitempty"`

	// OriginalAmount/OriginalCurrency preserve the source figures for rows
	// whose reporting amounts were already converted to EUR (ledger source).
	OriginalAmount   float64 `json:"original_amount,omitempty"`
	OriginalCurrency string  `json:"original_currency,omitempty"`

	// --- Filled later ---
	// OwningCompany is set by the attribution resolver, never by normalizers.
	OwningCompany string `json:"owning_company,omitempty"`
	// HashID is the idempotent store dedupe key.
	HashID string `json:"hash_id,omitempty"`
}

// SourceSystem values emitted by the normalizers.
const (
	SourceEurowag     = "Eurowag"
	SourceE100PL      = "E100_PL"
	SourceE100EN      = "E100_EN"
	SourceFakturownia = "Fakturownia"
	SourceSubiekt     = "Subiekt"
)

// CardSources are the fuel-card source systems whose costs may be shared
// across companies (the primary company pays, the secondary may own).
var CardSources = []string{SourceEurowag, SourceE100PL, SourceE100EN}

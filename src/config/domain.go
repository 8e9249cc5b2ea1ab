package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// CompanyIdentity names one operating company and the uppercase tokens used
// to match it inside free-text seller/buyer fields of invoicing exports.
type CompanyIdentity struct {
	Name        string   `yaml:"name" validate:"required"`
	TaxID       string   `yaml:"tax_id,omitempty"`
	MatchTokens []string `yaml:"match_tokens" validate:"required,min=1"`
}

// Matches reports whether the free-text field refers to this company, by
// name token or tax id.
func (c CompanyIdentity) Matches(field string) bool {
	f := strings.ToUpper(field)
	if c.TaxID != "" && strings.Contains(f, c.TaxID) {
		return true
	}
	for _, tok := range c.MatchTokens {
		if strings.Contains(f, strings.ToUpper(tok)) {
			return true
		}
	}
	return false
}

// FleetVehicle is one secondary-fleet membership entry. A vehicle absent
// from the fleet list is never owned by the secondary company.
type FleetVehicle struct {
	Vehicle       string    `yaml:"vehicle" validate:"required"`
	EffectiveFrom time.Time `yaml:"effective_from" validate:"required"`
}

// LedgerConfig drives the pivot-ledger statement parser.
type LedgerConfig struct {
	RevenueLabels []string `yaml:"revenue_labels" validate:"required,min=1"`
	CostLabels    []string `yaml:"cost_labels" validate:"required,min=1"`
	IgnoredLabels []string `yaml:"ignored_labels"`

	// Correction suppression pairs: when the correction label appears for a
	// (vehicle, counterparty, month) group, rows carrying any of the
	// suppressed labels in that group are dropped.
	PurchaseCorrectionLabel  string   `yaml:"purchase_correction_label"`
	PurchaseSuppressedLabels []string `yaml:"purchase_suppressed_labels"`
	SalesCorrectionLabel     string   `yaml:"sales_correction_label"`
	SalesSuppressedLabels    []string `yaml:"sales_suppressed_labels"`

	// CurrencyCaptions maps the statement's spelled-out currency headers to
	// ISO codes ("euro" -> EUR).
	CurrencyCaptions map[string]string `yaml:"currency_captions" validate:"required,min=1"`
	GrossCaption     string            `yaml:"gross_caption" validate:"required"`
	NetCaption       string            `yaml:"net_caption" validate:"required"`

	// VehicleLineBlacklist rejects context lines naming institutions rather
	// than vehicles; FinalDropBlacklist removes emitted rows whose vehicle
	// token contains a placeholder/company fragment.
	VehicleLineBlacklist []string `yaml:"vehicle_line_blacklist"`
	FinalDropBlacklist   []string `yaml:"final_drop_blacklist"`
}

// Heuristics keeps the informal vehicle-shape rules configurable. These are
// unverified best-effort rules inherited from the manual workflow: they can
// misclassify legitimate short plates or long compound contractor names.
type Heuristics struct {
	// Canonicalizer knobs: country prefix stripping and the alphanumeric run
	// extracted from a messy identifier.
	CountryPrefix    string `yaml:"country_prefix"`
	PrefixStripOver  int    `yaml:"prefix_strip_over" validate:"min=0"`
	TokenRunMinLen   int    `yaml:"token_run_min_len" validate:"min=1"`
	TokenRunMaxLen   int    `yaml:"token_run_max_len" validate:"min=1"`
	// Ledger vehicle-line shape: a context line is a vehicle group when its
	// tokens are this long and mix letters with digits (or are all digits of
	// at least AllDigitMinLen).
	VehicleLineMinLen int `yaml:"vehicle_line_min_len" validate:"min=1"`
	VehicleLineMaxLen int `yaml:"vehicle_line_max_len" validate:"min=1"`
	AllDigitMinLen    int `yaml:"all_digit_min_len" validate:"min=1"`
}

// DomainConfig is the immutable domain configuration loaded once per run and
// passed into each component at construction.
type DomainConfig struct {
	PrimaryCompany   CompanyIdentity    `yaml:"primary_company" validate:"required"`
	SecondaryCompany CompanyIdentity    `yaml:"secondary_company" validate:"required"`
	VATRates         map[string]float64 `yaml:"vat_rates" validate:"required,min=1"`
	Fleet            []FleetVehicle     `yaml:"fleet"`
	Aliases          map[string]string  `yaml:"aliases"`
	// IdentifierBlacklist lists issuer/bank/leasing fragments that disqualify
	// a token from being a vehicle identifier.
	IdentifierBlacklist []string     `yaml:"identifier_blacklist" validate:"required,min=1"`
	Ledger              LedgerConfig `yaml:"ledger" validate:"required"`
	Heuristics          Heuristics   `yaml:"heuristics"`
}

// Companies returns both company names, primary first.
func (d *DomainConfig) Companies() []string {
	return []string{d.PrimaryCompany.Name, d.SecondaryCompany.Name}
}

// KnownCompany reports whether name is one of the two configured companies.
func (d *DomainConfig) KnownCompany(name string) bool {
	return name == d.PrimaryCompany.Name || name == d.SecondaryCompany.Name
}

// LoadDomainConfig reads and validates the YAML domain configuration.
func LoadDomainConfig(path string) (*DomainConfig, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading domain config '%s': %w", path, err)
	}

	cfg := DefaultDomainConfig()
	decoder := yaml.NewDecoder(strings.NewReader(string(buf)))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decoding domain config '%s': %w", path, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating domain config '%s': %w", path, err)
	}
	return cfg, nil
}

// DefaultDomainConfig returns the configuration matching the manual workflow
// this tool replaced. A YAML file overrides any of it.
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		PrimaryCompany: CompanyIdentity{
			Name:        "HOLIER",
			MatchTokens: []string{"HOLIER"},
		},
		SecondaryCompany: CompanyIdentity{
			Name:        "UNIX-TRANS",
			MatchTokens: []string{"UNIX"},
		},
		VATRates: map[string]float64{
			"PL": 0.23, "DE": 0.19, "CZ": 0.21, "AT": 0.20, "FR": 0.20,
			"DK": 0.25, "NL": 0.21, "BE": 0.21, "ES": 0.21, "IT": 0.22,
			"LT": 0.21, "LV": 0.21, "EE": 0.20, "SK": 0.20, "HU": 0.27,
			"RO": 0.19, "BG": 0.20, "SI": 0.22, "HR": 0.25, "SE": 0.25,
		},
		Fleet: []FleetVehicle{
			{Vehicle: "NOL935C", EffectiveFrom: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)},
			{Vehicle: "WPR9685N", EffectiveFrom: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)},
			{Vehicle: "WGM8463A", EffectiveFrom: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)},
			{Vehicle: "WPR9335N", EffectiveFrom: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)},
		},
		Aliases: map[string]string{},
		IdentifierBlacklist: []string{
			"TRUCK24SP", "TRUCK24", "EDENRED", "MARMAR", "SANTANDER",
			"LEASING", "PZU", "WARTA", "INTERCARS", "EUROWAG", "E100",
			"POLSKA", "BANK",
		},
		Ledger: LedgerConfig{
			RevenueLabels: []string{
				"Faktura VAT sprzedaży",
				"Przychód wewnętrzny",
				"Rachunek sprzedaży",
				"Korekta faktury VAT sprzedaży",
				"Paragon",
				"Paragon imienny",
			},
			CostLabels: []string{
				"Faktura VAT zakupu",
				"Korekta faktury VAT zakupu",
				"Rachunek zakupu",
				"Tankowanie",
				"Paliwo",
				"Opłata drogowa",
				"Opłaty drogowe",
				"Opłata drogowa DK",
				"Art. biurowe", "Art. chemiczne", "Art. spożywcze", "Badanie lekarskie", "Delegacja",
				"Giełda", "Księgowość", "Leasing", "Mandaty", "Obsługa prawna",
				"Ogłoszenie", "Poczta Polska", "Program", "Prowizje",
				"Rozliczanie kierowców", "Rozliczenie VAT EUR", "Serwis", "Szkolenia BHP",
				"Tachograf", "USŁ. HOTELOWA", "Usługi telekomunikacyjne", "Wykup auta",
				"Wysyłka kurierska", "Zak. do auta", "Zakup auta", "Części", "Myjnia",
				"Ubezpieczenie",
			},
			IgnoredLabels: []string{
				"Zamówienie od klienta",
				"Wydanie zewnętrzne",
				"Oferta",
				"Proforma",
				"Suma końcowa",
				"Nr pojazdu",
			},
			PurchaseCorrectionLabel:  "Korekta faktury VAT zakupu",
			PurchaseSuppressedLabels: []string{"Faktura VAT zakupu", "Serwis", "Rachunek zakupu"},
			SalesCorrectionLabel:     "Korekta faktury VAT sprzedaży",
			SalesSuppressedLabels:    []string{"Faktura VAT sprzedaży", "Rachunek sprzedaży"},
			CurrencyCaptions: map[string]string{
				"euro":          "EUR",
				"złoty polski":  "PLN",
				"korona duńska": "DKK",
			},
			GrossCaption: "Suma Wartosc_BruttoPoRabacie",
			NetCaption:   "Suma Wartosc_NettoPoRabacie",
			VehicleLineBlacklist: []string{
				"E100", "EUROWAG", "VISA", "MASTER", "MASTERCARD",
				"ORLEN", "LOTOS", "BP", "SHELL", "UTA", "DKV",
				"PKO", "SANTANDER", "ING", "ALIOR", "MILLENIUM",
				"TRUCK24SP", "EDENRED", "INTERCARS", "MARMAR",
				"LEASING", "FINANCE", "UBER", "BOLT", "FREE",
				"SERWIS", "POLSKA", "SPOLKA", "GROUP", "LOGISTICS",
				"TRANS", "CONSULTING", "SYSTEM", "SOLUTIONS",
			},
			FinalDropBlacklist: []string{
				"TRUCK", "HEROSTALSP", "KUEHNE", "GRUPAKAPITA", "REGRINDSP",
				"PTU0001", "PTU0002",
				"TRUCK24SP", "EDENRED", "MARMAR", "INTERCARS", "SANTANDER", "LEASING",
			},
		},
		Heuristics: Heuristics{
			CountryPrefix:     "PL",
			PrefixStripOver:   7,
			TokenRunMinLen:    4,
			TokenRunMaxLen:    12,
			VehicleLineMinLen: 5,
			VehicleLineMaxLen: 12,
			AllDigitMinLen:    4,
		},
	}
}

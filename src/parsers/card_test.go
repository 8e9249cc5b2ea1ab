package parsers

import (
	"math"
	"testing"

	"github.com/username/fleetledger/src/config"
	"github.com/username/fleetledger/src/models"
	"github.com/username/fleetledger/src/processors"
	"github.com/username/fleetledger/src/tabular"
)

func testRegistryDeps(t *testing.T) (*config.DomainConfig, *processors.Canonicalizer) {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	return cfg, processors.NewCanonicalizer(cfg)
}

func eurowagGrid(rows ...[]string) []tabular.Grid {
	header := []string{"Data i godzina", "Tablica rejestracyjna", "Posiadacz karty",
		"Kwota netto", "Kwota brutto", "Waluta", "Ilość", "Kraj", "Usługa", "Artykuł"}
	g := tabular.Grid{Cells: [][]string{header}}
	g.Cells = append(g.Cells, rows...)
	return []tabular.Grid{g}
}

func TestEurowagNormalize(t *testing.T) {
	cfg, canon := testRegistryDeps(t)
	n := newCardNormalizer(eurowagDescriptor(), cfg, canon)

	grids := eurowagGrid(
		[]string{"05.01.2025 14:30:00", "WGM 8463A", "", "100,00", "123,00", "PLN", "250,5", "PL", "Tankowanie", "Diesel ON"},
		[]string{"06.01.2025 08:00:00", "WGM 8463A", "", "40,00", "49,20", "EUR", "", "AT", "Toll section A1", "Opłata"},
		[]string{"07.01.2025 10:00:00", "", "Jan Kowalski", "10,00", "12,30", "PLN", "20", "PL", "Tankowanie", "AdBlue"},
		[]string{"08.01.2025 09:00:00", "WGM 8463A", "", "5,00", "6,15", "PLN", "", "PL", "OpenLoop payment", "Visa"},
		[]string{"not a date", "WGM 8463A", "", "1", "1", "PLN", "", "PL", "x", "y"},
		[]string{"09.01.2025 09:00:00", "WGM 8463A", "", "1", "n/a", "PLN", "", "PL", "x", "y"},
	)

	if !n.Matches(grids) {
		t.Fatal("eurowag schema should match its own grid")
	}
	txs, err := n.Normalize(grids, "HOLIER")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(txs) != 4 {
		t.Fatalf("got %d transactions, want 4 (bad date and bad amount rows dropped)", len(txs))
	}

	fuel := txs[0]
	if fuel.Category != models.CategoryFuel || fuel.ProductLabel != "Diesel" {
		t.Errorf("row 1 classified as (%s, %s), want (FUEL, Diesel)", fuel.Category, fuel.ProductLabel)
	}
	if fuel.CanonicalVehicleID != "WGM8463A" {
		t.Errorf("row 1 vehicle = %q, want WGM8463A", fuel.CanonicalVehicleID)
	}
	if fuel.AmountNet != 100 || fuel.AmountGross != 123 || fuel.Quantity != 250.5 {
		t.Errorf("row 1 amounts = (%v, %v, %v)", fuel.AmountNet, fuel.AmountGross, fuel.Quantity)
	}
	if fuel.SourceSystem != models.SourceEurowag || fuel.CompanyTag != "HOLIER" {
		t.Errorf("row 1 tagging = (%s, %s)", fuel.SourceSystem, fuel.CompanyTag)
	}

	if txs[1].Category != models.CategoryToll {
		t.Errorf("row 2 category = %s, want TOLL", txs[1].Category)
	}
	if txs[1].Quantity != 1 {
		t.Errorf("row 2 quantity = %v, want 1 when the cell is empty", txs[1].Quantity)
	}
	if txs[2].ProductLabel != "AdBlue" || txs[2].Category != models.CategoryFuel {
		t.Errorf("row 3 classified as (%s, %s), want (FUEL, AdBlue)", txs[2].Category, txs[2].ProductLabel)
	}
	// Card-holder name is the identifier fallback when no plate is present.
	if txs[2].RawIdentifier != "Jan Kowalski" {
		t.Errorf("row 3 raw identifier = %q, want card holder name", txs[2].RawIdentifier)
	}
	if txs[3].Category != models.CategoryOther || txs[3].ProductLabel != "Płatność kartą" {
		t.Errorf("row 4 classified as (%s, %s), want (OTHER, Płatność kartą)", txs[3].Category, txs[3].ProductLabel)
	}
}

func e100PLGrid(rows ...[]string) []tabular.Grid {
	header := []string{"Data", "Czas", "Numer samochodu", "Numer karty", "Kwota",
		"Waluta", "Ilość", "Kraj", "Usługa", "Kategoria"}
	g := tabular.Grid{Name: "Transactions", Cells: [][]string{header}}
	g.Cells = append(g.Cells, rows...)
	return []tabular.Grid{g}
}

func TestE100PLNormalizeDerivesNetFromVAT(t *testing.T) {
	cfg, canon := testRegistryDeps(t)
	n := newCardNormalizer(e100PLDescriptor(), cfg, canon)

	grids := e100PLGrid(
		[]string{"05.01.2025", "14:30:00", "WPR9685N", "", "123,00", "PLN", "100", "PL", "Tankowanie ON", ""},
		[]string{"06.01.2025", "09:00:00", "WPR9685N", "", "50,00", "EUR", "", "DE", "Toll", ""},
	)

	if !n.Matches(grids) {
		t.Fatal("E100 PL schema should match its own grid")
	}
	txs, err := n.Normalize(grids, "HOLIER")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}

	if math.Abs(txs[0].AmountNet-100) > 1e-9 {
		t.Errorf("PL net = %v, want 123/1.23 = 100", txs[0].AmountNet)
	}
	if txs[0].Category != models.CategoryFuel || txs[0].ProductLabel != "Diesel" {
		t.Errorf("row 1 classified as (%s, %s), want (FUEL, Diesel)", txs[0].Category, txs[0].ProductLabel)
	}
	if math.Abs(txs[1].AmountNet-50/1.19) > 1e-9 {
		t.Errorf("DE net = %v, want 50/1.19", txs[1].AmountNet)
	}
	if txs[1].Category != models.CategoryToll {
		t.Errorf("row 2 category = %s, want TOLL", txs[1].Category)
	}
}

func TestE100MatchRequiresTransactionsSheet(t *testing.T) {
	cfg, canon := testRegistryDeps(t)
	n := newCardNormalizer(e100PLDescriptor(), cfg, canon)

	g := tabular.Grid{Name: "Arkusz1", Cells: [][]string{
		{"Numer samochodu", "Kwota"},
	}}
	if n.Matches([]tabular.Grid{g}) {
		t.Error("schema must not match when the Transactions sheet is absent")
	}
}

func TestNormalizeEmptySheet(t *testing.T) {
	cfg, canon := testRegistryDeps(t)
	n := newCardNormalizer(eurowagDescriptor(), cfg, canon)

	if _, err := n.Normalize(eurowagGrid(), "HOLIER"); err != ErrNoData {
		t.Errorf("header-only sheet: err = %v, want ErrNoData", err)
	}
}

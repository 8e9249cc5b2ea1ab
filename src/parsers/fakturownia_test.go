package parsers

import (
	"errors"
	"strings"
	"testing"

	"github.com/username/fleetledger/src/models"
	"github.com/username/fleetledger/src/tabular"
)

func fakturowniaGrid(rows ...[]string) []tabular.Grid {
	header := []string{"Data wystawienia", "Sprzedający", "Nabywca", "Wartość netto",
		"Wartość brutto", "Waluta", "Kraj", "Uwagi", "Opis"}
	g := tabular.Grid{Cells: [][]string{header}}
	g.Cells = append(g.Cells, rows...)
	return []tabular.Grid{g}
}

func TestFakturowniaDirection(t *testing.T) {
	cfg, canon := testRegistryDeps(t)
	n := newFakturowniaNormalizer(cfg, canon)

	grids := fakturowniaGrid(
		[]string{"2025-01-05", "HOLIER SP. Z O.O.", "SPEDYTOR A", "1000,00", "1230,00", "PLN", "PL", "dot. WGM 8463A", ""},
		[]string{"2025-01-06", "SERWIS OPON SP. Z O.O.", "HOLIER SP. Z O.O.", "200,00", "246,00", "PLN", "", "", "wymiana opon WPR9685N"},
		[]string{"2025-01-07", "OBCA FIRMA", "INNA FIRMA", "50,00", "61,50", "PLN", "PL", "", ""},
	)

	if !n.Matches(grids) {
		t.Fatal("fakturownia schema should match its own grid")
	}
	txs, err := n.Normalize(grids, "HOLIER")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2 (unrelated invoice discarded)", len(txs))
	}

	sale := txs[0]
	if sale.Category != models.CategoryRevenue || sale.ProductLabel != "Usługa Transportowa" {
		t.Errorf("sale classified as (%s, %s)", sale.Category, sale.ProductLabel)
	}
	if sale.Counterparty != "SPEDYTOR A" {
		t.Errorf("sale counterparty = %q, want the buyer", sale.Counterparty)
	}
	if sale.CanonicalVehicleID != "WGM8463A" {
		t.Errorf("sale vehicle = %q, want WGM8463A from Uwagi", sale.CanonicalVehicleID)
	}

	purchase := txs[1]
	if purchase.Category != models.CategoryCost {
		t.Errorf("purchase category = %s, want COST", purchase.Category)
	}
	if purchase.Counterparty != "SERWIS OPON SP. Z O.O." {
		t.Errorf("purchase counterparty = %q, want the seller", purchase.Counterparty)
	}
	if purchase.CanonicalVehicleID != "WPR9685N" {
		t.Errorf("purchase vehicle = %q, want WPR9685N from Opis", purchase.CanonicalVehicleID)
	}
	if purchase.Country != "PL" {
		t.Errorf("purchase country = %q, want PL default", purchase.Country)
	}
}

func TestFakturowniaPlateFalsePositives(t *testing.T) {
	cfg, canon := testRegistryDeps(t)
	n := newFakturowniaNormalizer(cfg, canon)

	grids := fakturowniaGrid(
		[]string{"2025-01-05", "HOLIER SP. Z O.O.", "KLIENT", "10", "12,30", "PLN", "PL", "FAKTURA za transport WPR 9335N", ""},
		[]string{"2025-01-06", "HOLIER SP. Z O.O.", "KLIENT", "10", "12,30", "PLN", "PL", "przelew BANK 12345", ""},
	)
	txs, err := n.Normalize(grids, "HOLIER")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	// The word FAKTURA is plate-shaped but must be skipped in favour of the
	// real plate further in the text.
	if txs[0].CanonicalVehicleID != "WPR9335N" {
		t.Errorf("vehicle = %q, want WPR9335N", txs[0].CanonicalVehicleID)
	}
	if txs[1].CanonicalVehicleID == "BANK12345" {
		t.Errorf("BANK hit should not become a vehicle")
	}
}

func TestDetectAndNormalize(t *testing.T) {
	cfg, canon := testRegistryDeps(t)
	r := NewRegistry(cfg, canon)

	csvData := strings.Join([]string{
		"Data wystawienia;Sprzedający;Nabywca;Wartość netto;Wartość brutto;Waluta;Kraj;Uwagi",
		"2025-01-05;HOLIER SP. Z O.O.;SPEDYTOR A;1000,00;1230,00;PLN;PL;WGM 8463A",
		"",
	}, "\n")

	source, txs, err := r.DetectAndNormalize([]byte(csvData), "faktury.csv", "HOLIER")
	if err != nil {
		t.Fatalf("DetectAndNormalize: %v", err)
	}
	if source != models.SourceFakturownia {
		t.Errorf("source = %q, want %q", source, models.SourceFakturownia)
	}
	if len(txs) != 1 || txs[0].Category != models.CategoryRevenue {
		t.Errorf("unexpected normalization result: %+v", txs)
	}
}

func TestDetectAndNormalizeUnknownFormat(t *testing.T) {
	cfg, canon := testRegistryDeps(t)
	r := NewRegistry(cfg, canon)

	_, _, err := r.DetectAndNormalize([]byte("kol1;kol2\na;b\n"), "dziwny.csv", "HOLIER")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}

package parsers

import (
	"regexp"
	"strings"

	"github.com/username/fleetledger/src/config"
	"github.com/username/fleetledger/src/models"
	"github.com/username/fleetledger/src/processors"
	"github.com/username/fleetledger/src/tabular"
	"github.com/username/fleetledger/src/utils"
)

// plateRe finds a Polish-style registration plate inside free invoice text.
var plateRe = regexp.MustCompile(`\b[A-Z]{2,3}[\s-]?[0-9A-Z]{4,5}\b`)

// plateFalsePositives are regex hits that are words, not plates.
var plateFalsePositives = []string{"POLSKA", "PRZELEW", "BANK", "FAKTURA"}

// vehicleSearchCols are scanned in order, concatenated, for a plate match.
var vehicleSearchCols = []string{"Uwagi", "Nr zamówienia", "Opis", "Dodatkowe pole na pozycjach faktury"}

// fakturowniaNormalizer handles the invoicing export. Direction (revenue vs
// cost) is decided by matching the seller/buyer fields against the upload's
// own company identity; rows matching neither side are discarded as noise.
type fakturowniaNormalizer struct {
	cfg   *config.DomainConfig
	canon *processors.Canonicalizer
}

func newFakturowniaNormalizer(cfg *config.DomainConfig, canon *processors.Canonicalizer) *fakturowniaNormalizer {
	return &fakturowniaNormalizer{cfg: cfg, canon: canon}
}

func (n *fakturowniaNormalizer) Source() string { return models.SourceFakturownia }

func (n *fakturowniaNormalizer) Matches(grids []tabular.Grid) bool {
	if len(grids) == 0 {
		return false
	}
	header := grids[0].HeaderIndex(0)
	_, seller := header["Sprzedający"]
	_, issued := header["Data wystawienia"]
	return seller && issued
}

func (n *fakturowniaNormalizer) identity(companyTag string) config.CompanyIdentity {
	if companyTag == n.cfg.SecondaryCompany.Name {
		return n.cfg.SecondaryCompany
	}
	return n.cfg.PrimaryCompany
}

func (n *fakturowniaNormalizer) Normalize(grids []tabular.Grid, companyTag string) ([]models.CanonicalTransaction, error) {
	g := &grids[0]
	if len(g.Cells) < 2 {
		return nil, ErrNoData
	}
	header := g.HeaderIndex(0)
	col := func(name string, row int) string {
		idx, ok := header[name]
		if !ok {
			return ""
		}
		return g.Cell(row, idx)
	}
	own := n.identity(companyTag)

	var txs []models.CanonicalTransaction
	for row := 1; row < len(g.Cells); row++ {
		ts, ok := utils.ParseFlexibleDate(col("Data wystawienia", row))
		if !ok {
			continue
		}
		gross, ok := utils.ParseAmount(col("Wartość brutto", row))
		if !ok {
			continue
		}
		net, _ := utils.ParseAmount(col("Wartość netto", row))

		seller := col("Sprzedający", row)
		buyer := col("Nabywca", row)

		var category, label, counterparty string
		switch {
		case own.Matches(seller):
			category, label, counterparty = models.CategoryRevenue, "Usługa Transportowa", buyer
		case own.Matches(buyer):
			category, label, counterparty = models.CategoryCost, "Koszt", seller
		default:
			// Advance payments and unrelated invoices name neither company.
			continue
		}

		country := strings.TrimSpace(col("Kraj", row))
		if country == "" {
			country = "PL"
		}

		rawID, vehicle := n.findVehicle(g, header, row)
		txs = append(txs, models.CanonicalTransaction{
			Timestamp:          ts,
			RawIdentifier:      rawID,
			CanonicalVehicleID: vehicle,
			AmountNet:          net,
			AmountGross:        gross,
			Currency:           strings.TrimSpace(col("Waluta", row)),
			Quantity:           1,
			Category:           category,
			ProductLabel:       label,
			SourceSystem:       models.SourceFakturownia,
			Country:            country,
			CompanyTag:         companyTag,
			Counterparty:       strings.TrimSpace(counterparty),
		})
	}
	if len(txs) == 0 {
		return nil, ErrNoData
	}
	return txs, nil
}

// findVehicle scans the free-text columns for a plate-shaped token.
func (n *fakturowniaNormalizer) findVehicle(g *tabular.Grid, header map[string]int, row int) (string, string) {
	var b strings.Builder
	for _, name := range vehicleSearchCols {
		if idx, ok := header[name]; ok {
			b.WriteString(" ")
			b.WriteString(g.Cell(row, idx))
		}
	}
	text := strings.ToUpper(b.String())
	for _, m := range plateRe.FindAllString(text, -1) {
		found := strings.NewReplacer(" ", "", "-", "").Replace(m)
		if isPlateFalsePositive(found) {
			continue
		}
		return m, n.canon.Canonicalize(found)
	}
	return "", models.UnknownVehicle
}

func isPlateFalsePositive(token string) bool {
	for _, fp := range plateFalsePositives {
		if token == fp {
			return true
		}
	}
	return false
}

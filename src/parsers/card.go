package parsers

import (
	"strings"

	"github.com/username/fleetledger/src/config"
	"github.com/username/fleetledger/src/models"
	"github.com/username/fleetledger/src/processors"
	"github.com/username/fleetledger/src/tabular"
	"github.com/username/fleetledger/src/utils"
)

// cardDescriptor parametrizes one fuel-card export schema. The card formats
// differ only in captions, locale and whether a net column exists, so a
// single normalizer runs them all.
type cardDescriptor struct {
	source    string
	sheetName string // "" = first sheet
	// requiredCols is the detection signature; every caption must be present
	// in the header row.
	requiredCols []string
	// optionalAnyCols, when set, demands at least one of its captions too.
	optionalAnyCols []string

	dateCol string
	timeCol string // optional; appended to dateCol before parsing

	// idCols is the identifier preference chain, first nonempty cell wins.
	idCols []string

	netCol         string // "" = derive net from gross via the VAT table
	grossCol       string
	currencyCol    string
	quantityCol    string
	countryCol     string
	defaultCountry string

	// classifyCols feed the category cascade, in rule Field order.
	classifyCols []string
	fallbackCol  int // index into classifyCols providing the fallback label
	rules        []CategoryRule
}

type cardNormalizer struct {
	desc  cardDescriptor
	vat   map[string]float64
	canon *processors.Canonicalizer
}

func newCardNormalizer(desc cardDescriptor, cfg *config.DomainConfig, canon *processors.Canonicalizer) *cardNormalizer {
	return &cardNormalizer{desc: desc, vat: cfg.VATRates, canon: canon}
}

func (n *cardNormalizer) Source() string { return n.desc.source }

func (n *cardNormalizer) grid(grids []tabular.Grid) *tabular.Grid {
	if n.desc.sheetName != "" {
		return tabular.SheetByName(grids, n.desc.sheetName)
	}
	if len(grids) == 0 {
		return nil
	}
	return &grids[0]
}

func (n *cardNormalizer) Matches(grids []tabular.Grid) bool {
	g := n.grid(grids)
	if g == nil {
		return false
	}
	header := g.HeaderIndex(0)
	for _, col := range n.desc.requiredCols {
		if _, ok := header[col]; !ok {
			return false
		}
	}
	if len(n.desc.optionalAnyCols) > 0 {
		found := false
		for _, col := range n.desc.optionalAnyCols {
			if _, ok := header[col]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (n *cardNormalizer) Normalize(grids []tabular.Grid, companyTag string) ([]models.CanonicalTransaction, error) {
	g := n.grid(grids)
	if g == nil || len(g.Cells) < 2 {
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

	var txs []models.CanonicalTransaction
	for row := 1; row < len(g.Cells); row++ {
		dateStr := col(n.desc.dateCol, row)
		if n.desc.timeCol != "" {
			dateStr = strings.TrimSpace(dateStr + " " + col(n.desc.timeCol, row))
		}
		ts, ok := utils.ParseFlexibleDate(dateStr)
		if !ok {
			continue
		}

		gross, ok := utils.ParseAmount(col(n.desc.grossCol, row))
		if !ok {
			continue
		}

		country := strings.ToUpper(strings.TrimSpace(col(n.desc.countryCol, row)))
		if country == "" {
			country = n.desc.defaultCountry
		}

		var net float64
		if n.desc.netCol != "" {
			net, _ = utils.ParseAmount(col(n.desc.netCol, row))
		} else {
			net = gross / (1 + n.vat[country])
		}

		rawID := ""
		for _, idCol := range n.desc.idCols {
			if v := col(idCol, row); v != "" {
				rawID = v
				break
			}
		}

		fields := make([]string, len(n.desc.classifyCols))
		for i, c := range n.desc.classifyCols {
			fields[i] = col(c, row)
		}
		category, label := Classify(n.desc.rules, fields,
			strings.TrimSpace(fields[n.desc.fallbackCol]), models.CategoryOther)

		// A row without a parsable quantity counts as one unit.
		quantity, ok := utils.ParseAmount(col(n.desc.quantityCol, row))
		if !ok {
			quantity = 1
		}

		txs = append(txs, models.CanonicalTransaction{
			Timestamp:          ts,
			RawIdentifier:      rawID,
			CanonicalVehicleID: n.canon.Canonicalize(rawID),
			AmountNet:          net,
			AmountGross:        gross,
			Currency:           strings.TrimSpace(col(n.desc.currencyCol, row)),
			Quantity:           quantity,
			Category:           category,
			ProductLabel:       label,
			SourceSystem:       n.desc.source,
			Country:            country,
			CompanyTag:         companyTag,
		})
	}
	if len(txs) == 0 {
		return nil, ErrNoData
	}
	return txs, nil
}

// Package subiekt parses the accounting system's pivot-style vehicle
// statement. The layout is made for humans: a row can be a date header, a
// category label, an amount continuation, or a free-text line naming the
// vehicles or the counterparty that apply to the rows below it.
package subiekt

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/username/fleetledger/src/config"
	"github.com/username/fleetledger/src/models"
	"github.com/username/fleetledger/src/processors"
	"github.com/username/fleetledger/src/tabular"
	"github.com/username/fleetledger/src/utils"
)

// ErrNoData reports a parse that emitted nothing for the requested window.
// That is a valid outcome for a quiet period, not a failure.
var ErrNoData = errors.New("statement yields no rows for the window")

const (
	sheetName      = "pojazdy"
	currencyHeader = 7 // 0-based row of the spelled-out currency captions
	amountHeader   = 8 // 0-based row of the net/gross captions
	labelColumn    = 0
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// groupSplitRe separates "ABC1234 i XYZ5678" style vehicle groups.
var groupSplitRe = regexp.MustCompile(`\s+[iI]\s+|\s*\+\s*`)

var alnumRe = regexp.MustCompile(`^[A-Z0-9]+$`)

// shapeSplitRe tokenizes a context line for the vehicle-shape test only;
// the actual group split uses groupSplitRe.
var shapeSplitRe = regexp.MustCompile(`[\s+Ii]+`)

type Parser struct {
	cfg     *config.DomainConfig
	canon   *processors.Canonicalizer
	revenue map[string]bool
	cost    map[string]bool
	ignored map[string]bool
}

func NewParser(cfg *config.DomainConfig, canon *processors.Canonicalizer) *Parser {
	p := &Parser{
		cfg:     cfg,
		canon:   canon,
		revenue: make(map[string]bool),
		cost:    make(map[string]bool),
		ignored: make(map[string]bool),
	}
	for _, l := range cfg.Ledger.RevenueLabels {
		p.revenue[l] = true
	}
	for _, l := range cfg.Ledger.CostLabels {
		p.cost[l] = true
	}
	for _, l := range cfg.Ledger.IgnoredLabels {
		p.ignored[l] = true
	}
	return p
}

// parseState is the positional context carried between rows. It resets on
// every date header row.
type parseState struct {
	date         time.Time
	hasDate      bool
	vehicleGroup []string
	counterparty string
	pendingLabel string
}

func (s *parseState) resetForDate(d time.Time) {
	s.date = d
	s.hasDate = true
	s.vehicleGroup = nil
	s.counterparty = ""
	s.pendingLabel = ""
}

// amountColumn maps one spreadsheet column to its EUR conversion rate.
type amountColumn struct {
	col  int
	rate float64
	iso  string
}

// rowAmounts is the monetary content of one statement row.
type rowAmounts struct {
	grossEUR float64
	netEUR   float64
	origISO  string
	origAmt  float64
}

func (a rowAmounts) total() float64 {
	if a.grossEUR != 0 {
		return a.grossEUR
	}
	return a.netEUR
}

// Parse walks the statement and returns EUR-valued ledger transactions dated
// inside [from, to]. rates maps ISO codes to EUR factors; a missing currency
// contributes zero, mirroring the degraded rate-resolution path.
func (p *Parser) Parse(grids []tabular.Grid, rates map[string]float64, from, to time.Time) ([]models.CanonicalTransaction, error) {
	g := tabular.SheetByName(grids, sheetName)
	if g == nil && len(grids) > 0 {
		g = &grids[0]
	}
	if g == nil || len(g.Cells) <= amountHeader+1 {
		return nil, ErrNoData
	}

	grossCols, netCols := p.amountColumns(g, rates)

	var state parseState
	var emitted []models.CanonicalTransaction

	for row := amountHeader + 1; row < len(g.Cells); row++ {
		label := g.Cell(row, labelColumn)
		amounts := readAmounts(g, row, grossCols, netCols)

		if d, ok := parseDateCell(label); ok {
			state.resetForDate(d)
			continue
		}

		var useLabel string
		switch {
		case p.revenue[label] || p.cost[label] || p.ignored[label]:
			if p.ignored[label] {
				continue
			}
			state.pendingLabel = label
			if amounts.total() == 0 {
				// The amount arrives on a continuation row below.
				continue
			}
			useLabel = label
			state.pendingLabel = ""

		case label == "" && amounts.total() != 0:
			if state.pendingLabel == "" {
				continue
			}
			useLabel = state.pendingLabel
			state.pendingLabel = ""

		case label != "":
			if p.isVehicleLine(label) {
				state.vehicleGroup = splitVehicleGroup(label)
			} else {
				state.counterparty = strings.Trim(label, `"`)
			}
			continue

		default:
			continue
		}

		emitted = append(emitted, p.emit(&state, useLabel, amounts, from, to)...)
	}

	emitted = p.finalCleanup(emitted)
	emitted = p.suppressCorrections(emitted)
	if len(emitted) == 0 {
		return nil, ErrNoData
	}
	return emitted, nil
}

// amountColumns resolves the stacked two-row header into EUR-rated columns.
// The currency caption row has merged cells, so captions are carried forward
// across empty cells.
func (p *Parser) amountColumns(g *tabular.Grid, rates map[string]float64) (gross, net []amountColumn) {
	width := len(g.Cells[amountHeader])
	if len(g.Cells[currencyHeader]) > width {
		width = len(g.Cells[currencyHeader])
	}
	currency := ""
	for col := 1; col < width; col++ {
		if c := g.Cell(currencyHeader, col); c != "" {
			currency = c
		}
		iso, known := p.cfg.Ledger.CurrencyCaptions[currency]
		if !known {
			continue
		}
		rate := rates[iso]
		if iso == "EUR" {
			rate = 1.0
		}
		switch g.Cell(amountHeader, col) {
		case p.cfg.Ledger.GrossCaption:
			gross = append(gross, amountColumn{col: col, rate: rate, iso: iso})
		case p.cfg.Ledger.NetCaption:
			net = append(net, amountColumn{col: col, rate: rate, iso: iso})
		}
	}
	return gross, net
}

func readAmounts(g *tabular.Grid, row int, grossCols, netCols []amountColumn) rowAmounts {
	var a rowAmounts
	a.origISO = "EUR"
	for _, ac := range grossCols {
		v, ok := utils.ParseAmount(g.Cell(row, ac.col))
		if !ok || v == 0 {
			continue
		}
		a.grossEUR += v * ac.rate
		if a.origAmt == 0 {
			a.origISO = ac.iso
			a.origAmt = v
		}
	}
	for _, ac := range netCols {
		if v, ok := utils.ParseAmount(g.Cell(row, ac.col)); ok {
			a.netEUR += v * ac.rate
		}
	}
	return a
}

func (p *Parser) emit(state *parseState, label string, amounts rowAmounts, from, to time.Time) []models.CanonicalTransaction {
	if !state.hasDate {
		return nil
	}
	if state.date.Before(from) || state.date.After(to) {
		return nil
	}

	targets := state.vehicleGroup
	if len(targets) == 0 {
		// Revenue may attach to the counterparty as a pseudo-vehicle; costs
		// without a vehicle context have nowhere to go.
		if p.revenue[label] && state.counterparty != "" {
			targets = []string{state.counterparty}
		} else {
			return nil
		}
	}

	category := models.CategoryCost
	if p.revenue[label] {
		category = models.CategoryRevenue
	}

	description := label
	counterparty := models.NoCounterparty
	if state.counterparty != "" {
		description = label + " - " + state.counterparty
		counterparty = state.counterparty
	}

	n := float64(len(targets))
	txs := make([]models.CanonicalTransaction, 0, len(targets))
	for _, vehicle := range targets {
		txs = append(txs, models.CanonicalTransaction{
			Timestamp:          state.date,
			RawIdentifier:      vehicle,
			CanonicalVehicleID: vehicle, // resolved in finalCleanup
			AmountNet:          amounts.netEUR / n,
			AmountGross:        amounts.grossEUR / n,
			Currency:           "EUR",
			Quantity:           1,
			Category:           category,
			ProductLabel:       description,
			SourceSystem:       models.SourceSubiekt,
			CompanyTag:         p.cfg.PrimaryCompany.Name,
			Counterparty:       counterparty,
			OriginalAmount:     amounts.origAmt / n,
			OriginalCurrency:   amounts.origISO,
		})
	}
	return txs
}

// isVehicleLine applies the vehicle-shape heuristic to a context line. The
// rules are inherited from the manual workflow and can misclassify short
// plates or long compound contractor names.
func (p *Parser) isVehicleLine(line string) bool {
	clean := strings.ToUpper(strings.TrimSpace(line))
	if clean == "" {
		return false
	}
	for _, bad := range p.cfg.Ledger.VehicleLineBlacklist {
		if clean == bad {
			return false
		}
	}

	words := shapeSplitRe.Split(clean, -1)
	h := p.cfg.Heuristics
	hasVehicleWord := false
	for _, word := range words {
		word = strings.ReplaceAll(word, "-", "")
		if word == "" || p.wordBlacklisted(word) || len(word) < h.VehicleLineMinLen {
			continue
		}
		if !alnumRe.MatchString(word) {
			continue
		}
		letters := strings.IndexFunc(word, func(r rune) bool { return r >= 'A' && r <= 'Z' }) >= 0
		digits := strings.ContainsAny(word, "0123456789")
		if letters && digits {
			hasVehicleWord = true
			break
		}
		if !letters && digits && len(word) >= h.AllDigitMinLen {
			hasVehicleWord = true
			break
		}
	}
	if !hasVehicleWord {
		return false
	}
	for _, word := range words {
		if len(word) > h.VehicleLineMaxLen {
			return false
		}
	}
	return true
}

func (p *Parser) wordBlacklisted(word string) bool {
	for _, bad := range p.cfg.Ledger.VehicleLineBlacklist {
		if strings.Contains(word, bad) {
			return true
		}
	}
	return false
}

func splitVehicleGroup(line string) []string {
	var group []string
	for _, part := range groupSplitRe.Split(line, -1) {
		if part = strings.TrimSpace(part); part != "" {
			group = append(group, part)
		}
	}
	return group
}

// finalCleanup drops rows whose vehicle token names a placeholder or company
// fragment, then resolves canonical ids. When canonicalization comes back
// with the sentinel the original token is kept: counterparty pseudo-vehicles
// carry revenue and must not collapse onto one unknown bucket.
func (p *Parser) finalCleanup(txs []models.CanonicalTransaction) []models.CanonicalTransaction {
	kept := txs[:0]
	for _, tx := range txs {
		compact := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(tx.RawIdentifier))
		if p.finalDropped(compact) {
			continue
		}
		canonical := p.canon.Canonicalize(tx.RawIdentifier)
		if canonical == models.UnknownVehicle {
			canonical = tx.RawIdentifier
		}
		tx.CanonicalVehicleID = canonical
		kept = append(kept, tx)
	}
	return kept
}

func (p *Parser) finalDropped(compact string) bool {
	for _, bad := range p.cfg.Ledger.FinalDropBlacklist {
		if strings.Contains(compact, bad) {
			return true
		}
	}
	return false
}

// parseDateCell recognizes a date header cell: an ISO date string, any of
// the known date layouts, or a raw Excel serial number.
func parseDateCell(label string) (time.Time, bool) {
	if label == "" {
		return time.Time{}, false
	}
	if dateRe.MatchString(label) {
		if t, err := time.Parse("2006-01-02", label); err == nil {
			return t, true
		}
	}
	if t, ok := utils.ParseFlexibleDate(label); ok {
		return t, true
	}
	if serial, ok := utils.ParseAmount(label); ok && serial > 30000 && serial < 80000 {
		epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
		return epoch.AddDate(0, 0, int(serial)), true
	}
	return time.Time{}, false
}

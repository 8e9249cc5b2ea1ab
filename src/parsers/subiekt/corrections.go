package subiekt

import (
	"strings"

	"github.com/username/fleetledger/src/models"
	"github.com/username/fleetledger/src/utils"
)

type correctionGroup struct {
	vehicle      string
	counterparty string
	month        string
}

// suppressCorrections drops invoice rows that were later corrected. When a
// (vehicle, counterparty, month) group contains a correction, the corrected
// originals in that group would double-count the charge, so only the
// correction survives. Purchases and sales are handled symmetrically.
func (p *Parser) suppressCorrections(txs []models.CanonicalTransaction) []models.CanonicalTransaction {
	hasPurchaseCorr := make(map[correctionGroup]bool)
	hasSalesCorr := make(map[correctionGroup]bool)
	ledger := p.cfg.Ledger

	groupOf := func(tx models.CanonicalTransaction) correctionGroup {
		return correctionGroup{
			vehicle:      tx.CanonicalVehicleID,
			counterparty: tx.Counterparty,
			month:        utils.MonthKey(tx.Timestamp),
		}
	}

	for _, tx := range txs {
		if ledger.PurchaseCorrectionLabel != "" && strings.Contains(tx.ProductLabel, ledger.PurchaseCorrectionLabel) {
			hasPurchaseCorr[groupOf(tx)] = true
		}
		if ledger.SalesCorrectionLabel != "" && strings.Contains(tx.ProductLabel, ledger.SalesCorrectionLabel) {
			hasSalesCorr[groupOf(tx)] = true
		}
	}
	if len(hasPurchaseCorr) == 0 && len(hasSalesCorr) == 0 {
		return txs
	}

	kept := txs[:0]
	for _, tx := range txs {
		group := groupOf(tx)
		if hasPurchaseCorr[group] && suppressed(tx.ProductLabel,
			ledger.PurchaseCorrectionLabel, ledger.PurchaseSuppressedLabels) {
			continue
		}
		if hasSalesCorr[group] && suppressed(tx.ProductLabel,
			ledger.SalesCorrectionLabel, ledger.SalesSuppressedLabels) {
			continue
		}
		kept = append(kept, tx)
	}
	return kept
}

// suppressed reports whether the description names a corrected original.
// The correction label itself always survives; the containment check runs
// after it because "Faktura VAT zakupu" is a substring of its correction.
func suppressed(description, correctionLabel string, suppressedLabels []string) bool {
	if strings.Contains(description, correctionLabel) {
		return false
	}
	for _, label := range suppressedLabels {
		if strings.Contains(description, label) {
			return true
		}
	}
	return false
}

package processors

import (
	"sort"

	"github.com/username/fleetledger/src/models"
	"github.com/username/fleetledger/src/utils"
)

// BuildReinvoice computes the two directional cross-charges over attributed
// transactions. No netting between directions happens here.
func BuildReinvoice(a *Attributor, txs []models.CanonicalTransaction) *models.ReinvoiceReport {
	priToSec := make(map[string]*models.ReinvoiceLine)
	secToPri := make(map[string]*models.ReinvoiceLine)

	add := func(m map[string]*models.ReinvoiceLine, tx models.CanonicalTransaction) {
		line, ok := m[tx.CanonicalVehicleID]
		if !ok {
			line = &models.ReinvoiceLine{Vehicle: tx.CanonicalVehicleID}
			m[tx.CanonicalVehicleID] = line
		}
		line.NetEUR += tx.AmountNet
		line.GrossEUR += tx.AmountGross
		line.Rows++
	}

	for _, tx := range txs {
		switch {
		case tx.CompanyTag == a.primary && tx.OwningCompany == a.secondary:
			// The primary company fronted a cost for a secondary-fleet vehicle.
			add(priToSec, tx)
		case tx.CompanyTag == a.secondary && !a.InSecondaryFleet(tx.CanonicalVehicleID):
			// The secondary company paid for a vehicle that is not its own.
			add(secToPri, tx)
		}
	}

	report := &models.ReinvoiceReport{
		PrimaryToSec: flattenLines(priToSec),
		SecToPrimary: flattenLines(secToPri),
	}
	for _, line := range report.PrimaryToSec {
		report.TotalPriToSec += line.GrossEUR
	}
	for _, line := range report.SecToPrimary {
		report.TotalSecToPri += line.GrossEUR
	}
	report.TotalPriToSec = utils.RoundFloat(report.TotalPriToSec, 2)
	report.TotalSecToPri = utils.RoundFloat(report.TotalSecToPri, 2)
	return report
}

func flattenLines(m map[string]*models.ReinvoiceLine) []models.ReinvoiceLine {
	lines := make([]models.ReinvoiceLine, 0, len(m))
	for _, line := range m {
		line.NetEUR = utils.RoundFloat(line.NetEUR, 2)
		line.GrossEUR = utils.RoundFloat(line.GrossEUR, 2)
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Vehicle < lines[j].Vehicle })
	return lines
}

package processors

import (
	"sort"
	"strings"

	"github.com/username/fleetledger/src/models"
	"github.com/username/fleetledger/src/utils"
)

// BuildProfitability joins ledger revenue/cost rows with operational card
// spend per vehicle. Vehicles present on only one side still appear, with
// the missing side at zero. Vehicles matching the forbidden list are dropped
// from both sides, so card rows carrying a placeholder identifier never
// surface as a profit line.
func BuildProfitability(ledgerTxs, operationalTxs []models.CanonicalTransaction, forbidden []string) []models.VehicleProfit {
	byVehicle := make(map[string]*models.VehicleProfit)
	get := func(vehicle string) *models.VehicleProfit {
		vp, ok := byVehicle[vehicle]
		if !ok {
			vp = &models.VehicleProfit{Vehicle: vehicle}
			byVehicle[vehicle] = vp
		}
		return vp
	}

	// Unique revenue counterparties per vehicle, to name its main clients.
	counterparties := make(map[string]map[string]struct{})

	for _, tx := range ledgerTxs {
		if forbiddenVehicle(tx.CanonicalVehicleID, forbidden) {
			continue
		}
		vp := get(tx.CanonicalVehicleID)
		switch tx.Category {
		case models.CategoryRevenue:
			vp.RevenueNet += tx.AmountNet
			vp.RevenueGross += tx.AmountGross
			if tx.Counterparty != "" && tx.Counterparty != models.NoCounterparty {
				if counterparties[tx.CanonicalVehicleID] == nil {
					counterparties[tx.CanonicalVehicleID] = make(map[string]struct{})
				}
				counterparties[tx.CanonicalVehicleID][tx.Counterparty] = struct{}{}
			}
		case models.CategoryCost:
			vp.LedgerCostNet += tx.AmountNet
			vp.LedgerCostGross += tx.AmountGross
		}
	}

	for _, tx := range operationalTxs {
		if forbiddenVehicle(tx.CanonicalVehicleID, forbidden) {
			continue
		}
		switch tx.Category {
		case models.CategoryFuel, models.CategoryToll, models.CategoryOther:
			vp := get(tx.CanonicalVehicleID)
			vp.OperationalCostNet += tx.AmountNet
			vp.OperationalCostGross += tx.AmountGross
		}
	}

	result := make([]models.VehicleProfit, 0, len(byVehicle))
	for vehicle, vp := range byVehicle {
		vp.RevenueNet = utils.RoundFloat(vp.RevenueNet, 2)
		vp.RevenueGross = utils.RoundFloat(vp.RevenueGross, 2)
		vp.LedgerCostNet = utils.RoundFloat(vp.LedgerCostNet, 2)
		vp.LedgerCostGross = utils.RoundFloat(vp.LedgerCostGross, 2)
		vp.OperationalCostNet = utils.RoundFloat(vp.OperationalCostNet, 2)
		vp.OperationalCostGross = utils.RoundFloat(vp.OperationalCostGross, 2)
		// Profit is derived from the rounded components so the identity
		// revenue - ledger cost - operational cost holds on the output.
		vp.NetProfit = utils.RoundFloat(vp.RevenueNet-vp.LedgerCostNet-vp.OperationalCostNet, 2)
		vp.GrossProfit = utils.RoundFloat(vp.RevenueGross-vp.LedgerCostGross-vp.OperationalCostGross, 2)
		vp.MainCounterparty = joinCounterparties(counterparties[vehicle])
		result = append(result, *vp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Vehicle < result[j].Vehicle
	})
	return result
}

// joinCounterparties renders the vehicle's revenue counterparties as one
// stable label: unique names, sorted, comma-joined.
func joinCounterparties(set map[string]struct{}) string {
	if len(set) == 0 {
		return ""
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// forbiddenVehicle matches the ledger drop list against the compacted
// identifier, the same normalization the statement parser applies before its
// final drop.
func forbiddenVehicle(vehicle string, blacklist []string) bool {
	compact := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(vehicle))
	for _, bad := range blacklist {
		if strings.Contains(compact, bad) {
			return true
		}
	}
	return false
}

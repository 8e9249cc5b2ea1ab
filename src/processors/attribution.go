package processors

import (
	"time"

	"github.com/username/fleetledger/src/config"
	"github.com/username/fleetledger/src/models"
)

// Attributor decides which company bears a transaction's cost. The secondary
// company's fleet is an explicit membership list with effective-from dates;
// every vehicle outside it belongs to the primary company.
type Attributor struct {
	primary   string
	secondary string
	fleet     map[string]time.Time
}

func NewAttributor(cfg *config.DomainConfig) *Attributor {
	fleet := make(map[string]time.Time, len(cfg.Fleet))
	for _, fv := range cfg.Fleet {
		fleet[fv.Vehicle] = fv.EffectiveFrom
	}
	return &Attributor{
		primary:   cfg.PrimaryCompany.Name,
		secondary: cfg.SecondaryCompany.Name,
		fleet:     fleet,
	}
}

// InSecondaryFleet reports whether the vehicle is listed in the secondary
// company's fleet at all, regardless of date.
func (a *Attributor) InSecondaryFleet(vehicle string) bool {
	_, ok := a.fleet[vehicle]
	return ok
}

// Attribute resolves the owning company for one transaction. Ownership is a
// function of the transaction date, not just the vehicle, so this runs per
// row rather than over a precomputed set.
func (a *Attributor) Attribute(tx *models.CanonicalTransaction) string {
	effectiveFrom, member := a.fleet[tx.CanonicalVehicleID]
	if !member {
		return a.primary
	}
	if tx.CompanyTag == a.secondary {
		return a.secondary
	}
	if !tx.Timestamp.Before(effectiveFrom) {
		// The primary company paid on the secondary's behalf; this row is a
		// re-invoicing candidate.
		return a.secondary
	}
	return a.primary
}

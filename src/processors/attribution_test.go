package processors

import (
	"testing"
	"time"

	"github.com/username/fleetledger/src/config"
	"github.com/username/fleetledger/src/models"
)

func testAttributor(t *testing.T) *Attributor {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	cfg.Fleet = []config.FleetVehicle{
		{Vehicle: "WGM8463A", EffectiveFrom: time.Date(2025, 10, 8, 0, 0, 0, 0, time.UTC)},
	}
	return NewAttributor(cfg)
}

func TestAttribute(t *testing.T) {
	a := testAttributor(t)

	tests := []struct {
		name    string
		vehicle string
		tag     string
		ts      time.Time
		want    string
	}{
		{
			name:    "non-fleet vehicle stays primary",
			vehicle: "NOL935C",
			tag:     "HOLIER",
			ts:      time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
			want:    "HOLIER",
		},
		{
			name:    "secondary tag keeps secondary ownership",
			vehicle: "WGM8463A",
			tag:     "UNIX-TRANS",
			ts:      time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			want:    "UNIX-TRANS",
		},
		{
			name:    "fleet vehicle before effective date stays primary",
			vehicle: "WGM8463A",
			tag:     "HOLIER",
			ts:      time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
			want:    "HOLIER",
		},
		{
			name:    "fleet vehicle on effective date moves to secondary",
			vehicle: "WGM8463A",
			tag:     "HOLIER",
			ts:      time.Date(2025, 10, 8, 0, 0, 0, 0, time.UTC),
			want:    "UNIX-TRANS",
		},
		{
			name:    "fleet vehicle after effective date moves to secondary",
			vehicle: "WGM8463A",
			tag:     "HOLIER",
			ts:      time.Date(2025, 10, 10, 12, 30, 0, 0, time.UTC),
			want:    "UNIX-TRANS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := models.CanonicalTransaction{
				CanonicalVehicleID: tt.vehicle,
				CompanyTag:         tt.tag,
				Timestamp:          tt.ts,
			}
			if got := a.Attribute(&tx); got != tt.want {
				t.Errorf("Attribute(%s, %s, %s) = %q, want %q",
					tt.vehicle, tt.tag, tt.ts.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestInSecondaryFleet(t *testing.T) {
	a := testAttributor(t)
	if !a.InSecondaryFleet("WGM8463A") {
		t.Error("WGM8463A should be in the secondary fleet")
	}
	if a.InSecondaryFleet("NOL935C") {
		t.Error("NOL935C should not be in the secondary fleet")
	}
}

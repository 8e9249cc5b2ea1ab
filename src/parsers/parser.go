package parsers

import (
	"errors"
	"fmt"

	"github.com/username/fleetledger/src/config"
	"github.com/username/fleetledger/src/models"
	"github.com/username/fleetledger/src/processors"
	"github.com/username/fleetledger/src/tabular"
)

var (
	// ErrUnknownFormat marks a file matching none of the known export
	// schemas. Callers report it per file and keep going.
	ErrUnknownFormat = errors.New("unrecognized file format")
	// ErrNoData is a valid empty outcome, distinct from a parse failure.
	ErrNoData = errors.New("no data rows in file")
)

// Normalizer turns one external export schema into canonical transactions.
// Matches does schema sniffing only (sheet names, column headers); Normalize
// drops unparseable rows instead of failing the file.
type Normalizer interface {
	Source() string
	Matches(grids []tabular.Grid) bool
	Normalize(grids []tabular.Grid, companyTag string) ([]models.CanonicalTransaction, error)
}

// Registry holds the normalizers in detection order. E100 goes first since
// its signature sheet name is the most specific, Fakturownia last since its
// exports also arrive as CSV and HTML pretending to be Excel.
type Registry struct {
	normalizers []Normalizer
}

func NewRegistry(cfg *config.DomainConfig, canon *processors.Canonicalizer) *Registry {
	return &Registry{normalizers: []Normalizer{
		newCardNormalizer(e100PLDescriptor(), cfg, canon),
		newCardNormalizer(e100ENDescriptor(), cfg, canon),
		newCardNormalizer(eurowagDescriptor(), cfg, canon),
		newFakturowniaNormalizer(cfg, canon),
	}}
}

// DetectAndNormalize reads the file and dispatches it to the first
// normalizer whose schema matches.
func (r *Registry) DetectAndNormalize(data []byte, fileName, companyTag string) (string, []models.CanonicalTransaction, error) {
	grids, err := tabular.Read(data, fileName)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	for _, n := range r.normalizers {
		if !n.Matches(grids) {
			continue
		}
		txs, err := n.Normalize(grids, companyTag)
		return n.Source(), txs, err
	}
	return "", nil, fmt.Errorf("%w: '%s' matches no known schema", ErrUnknownFormat, fileName)
}

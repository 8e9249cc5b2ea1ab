package services

import (
	"errors"
	"time"

	"github.com/username/fleetledger/src/models"
)

var (
	// ErrBaseRateUnavailable aborts a run: every conversion depends on the
	// EUR/PLN base rate.
	ErrBaseRateUnavailable = errors.New("base EUR rate unavailable")
	// ErrNoFilesNormalized is returned when not a single file in an import
	// batch matched a known schema.
	ErrNoFilesNormalized = errors.New("no file in the batch could be normalized")
	// ErrNoData mirrors the parser-level empty outcome at the report layer.
	ErrNoData = errors.New("no data for the requested window")
	// ErrFileNotFound is returned for lookups of retained files that do not
	// exist.
	ErrFileNotFound = errors.New("file not found")
)

// UploadedFile is one file of an import batch, already read into memory.
type UploadedFile struct {
	Name string
	Data []byte
}

// RateService resolves EUR conversion rates. Lookups are memoized per
// currency and day; ClearCache scopes the memo to one logical run.
type RateService interface {
	EURBase() (float64, error)
	RateToEUR(currency string) (float64, error)
	RatesFor(currencies []string) (models.RateSet, error)
	ClearCache()
}

// ImportService ingests export files into the transaction store.
type ImportService interface {
	ImportFiles(files []UploadedFile, companyTag string) (*models.ImportResult, error)
	SaveFile(fileName, companyTag string, data []byte) error
	LoadFile(fileName string) ([]byte, error)
	ListFiles() ([]models.SavedFile, error)
	DeleteFile(fileName string) error
	MinMaxDates() (time.Time, time.Time, error)
}

// ReportService builds the expense, profitability and re-invoicing views.
type ReportService interface {
	ExpenseReport(company string, from, to time.Time) (*models.ExpenseReport, error)
	ProfitabilityReport(statement UploadedFile, company string, from, to time.Time) (*models.ProfitabilityReport, error)
	ReinvoiceReport(from, to time.Time) (*models.ReinvoiceReport, error)
	InvalidateCache()
}

package services

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/fleetledger/src/config"
	"github.com/username/fleetledger/src/database"
	"github.com/username/fleetledger/src/parsers"
	"github.com/username/fleetledger/src/processors"
)

func newTestImportService(t *testing.T) ImportService {
	t.Helper()
	database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	cfg := config.DefaultDomainConfig()
	registry := parsers.NewRegistry(cfg, processors.NewCanonicalizer(cfg))
	return NewImportService(registry, cache.New(cache.NoExpiration, cache.NoExpiration))
}

var fakturowniaCSV = []byte("Data wystawienia;Sprzedający;Nabywca;Wartość netto;Wartość brutto;Waluta;Kraj;Uwagi\n" +
	"2025-01-05;HOLIER SP. Z O.O.;SPEDYTOR A;1000,00;1230,00;PLN;PL;WGM 8463A\n" +
	"2025-01-20;HOLIER SP. Z O.O.;SPEDYTOR B;500,00;615,00;PLN;PL;WPR 9685N\n")

func TestImportFilesIdempotent(t *testing.T) {
	s := newTestImportService(t)

	first, err := s.ImportFiles([]UploadedFile{{Name: "faktury.csv", Data: fakturowniaCSV}}, "HOLIER")
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if got := first.Files[0]; got.Inserted != 2 || got.Duplicates != 0 {
		t.Errorf("first import = %d inserted / %d duplicates, want 2/0", got.Inserted, got.Duplicates)
	}

	second, err := s.ImportFiles([]UploadedFile{{Name: "faktury.csv", Data: fakturowniaCSV}}, "HOLIER")
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if got := second.Files[0]; got.Inserted != 0 || got.Duplicates != 2 {
		t.Errorf("re-import = %d inserted / %d duplicates, want 0/2", got.Inserted, got.Duplicates)
	}

	minT, maxT, err := s.MinMaxDates()
	if err != nil {
		t.Fatalf("MinMaxDates: %v", err)
	}
	if !minT.Equal(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)) ||
		!maxT.Equal(time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date range = (%v, %v)", minT, maxT)
	}
}

func TestImportFilesNothingNormalized(t *testing.T) {
	s := newTestImportService(t)

	result, err := s.ImportFiles([]UploadedFile{
		{Name: "dziwny.csv", Data: []byte("kol1;kol2\na;b\n")},
	}, "HOLIER")
	if !errors.Is(err, ErrNoFilesNormalized) {
		t.Fatalf("err = %v, want ErrNoFilesNormalized", err)
	}
	if result.Files[0].Warning == "" {
		t.Error("unrecognized file should carry a warning in its result")
	}
}

func TestImportFilesPartialBatch(t *testing.T) {
	s := newTestImportService(t)

	result, err := s.ImportFiles([]UploadedFile{
		{Name: "dziwny.csv", Data: []byte("kol1;kol2\na;b\n")},
		{Name: "faktury.csv", Data: fakturowniaCSV},
	}, "HOLIER")
	if err != nil {
		t.Fatalf("partial batch should succeed: %v", err)
	}
	if result.Files[0].Warning == "" {
		t.Error("bad file should carry a warning")
	}
	if result.Files[1].Inserted != 2 {
		t.Errorf("good file inserted %d rows, want 2", result.Files[1].Inserted)
	}
}

func TestMinMaxDatesEmptyStore(t *testing.T) {
	s := newTestImportService(t)
	if _, _, err := s.MinMaxDates(); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestSavedFileRoundTrip(t *testing.T) {
	s := newTestImportService(t)
	data := []byte("zawartość pliku")

	if err := s.SaveFile("export.csv", "HOLIER", data); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	got, err := s.LoadFile("export.csv")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("LoadFile = %q, want %q", got, data)
	}

	files, err := s.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 || files[0].FileName != "export.csv" || files[0].SizeBytes != int64(len(data)) {
		t.Errorf("ListFiles = %+v", files)
	}

	if err := s.DeleteFile("export.csv"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := s.LoadFile("export.csv"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("LoadFile after delete: err = %v, want ErrFileNotFound", err)
	}
	if err := s.DeleteFile("export.csv"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("double delete: err = %v, want ErrFileNotFound", err)
	}
}

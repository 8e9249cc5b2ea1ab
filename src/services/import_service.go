package services

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/fleetledger/src/database"
	"github.com/username/fleetledger/src/logger"
	"github.com/username/fleetledger/src/models"
	"github.com/username/fleetledger/src/parsers"
)

const storedTimestampLayout = "2006-01-02 15:04:05"

type importServiceImpl struct {
	registry    *parsers.Registry
	reportCache *cache.Cache
}

func NewImportService(registry *parsers.Registry, reportCache *cache.Cache) ImportService {
	return &importServiceImpl{registry: registry, reportCache: reportCache}
}

// hashID is the idempotent dedupe key: re-importing the same file must not
// grow the store.
func hashID(tx *models.CanonicalTransaction) string {
	payload := fmt.Sprintf("%s|%s|%.2f|%s|%s|%s",
		tx.Timestamp.Format(storedTimestampLayout),
		tx.RawIdentifier,
		tx.AmountGross,
		tx.Currency,
		tx.ProductLabel,
		tx.CompanyTag,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ImportFiles normalizes and stores a batch. A file that matches no schema
// or parses to nothing is reported in its FileResult and the batch goes on;
// the batch as a whole fails only when nothing normalized.
func (s *importServiceImpl) ImportFiles(files []UploadedFile, companyTag string) (*models.ImportResult, error) {
	result := &models.ImportResult{
		BatchID: uuid.New().String(),
		Company: companyTag,
	}
	anyNormalized := false

	for _, file := range files {
		fr := models.FileResult{FileName: file.Name}
		source, txs, err := s.registry.DetectAndNormalize(file.Data, file.Name, companyTag)
		fr.Source = source
		switch {
		case errors.Is(err, parsers.ErrUnknownFormat):
			fr.Warning = err.Error()
		case errors.Is(err, parsers.ErrNoData):
			fr.Warning = fmt.Sprintf("'%s' contains no usable rows", file.Name)
		case err != nil:
			fr.Warning = err.Error()
		default:
			fr.RowCount = len(txs)
			inserted, duplicates, insErr := s.insertTransactions(txs, result.BatchID)
			if insErr != nil {
				return nil, fmt.Errorf("storing transactions from '%s': %w", file.Name, insErr)
			}
			fr.Inserted = inserted
			fr.Duplicates = duplicates
			anyNormalized = true
			logger.L.Info("file normalized",
				"file", file.Name, "source", source, "rows", len(txs),
				"inserted", inserted, "duplicates", duplicates)
		}
		result.Files = append(result.Files, fr)
	}

	if !anyNormalized {
		return result, ErrNoFilesNormalized
	}
	s.reportCache.Flush()
	return result, nil
}

func (s *importServiceImpl) insertTransactions(txs []models.CanonicalTransaction, batchID string) (inserted, duplicates int, err error) {
	dbTx, err := database.DB.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("error starting db transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO transactions (timestamp, raw_identifier, vehicle, amount_net, amount_gross, currency, quantity, category, product_label, source_system, country, company_tag, counterparty, original_amount, original_currency, batch_id, hash_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for i := range txs {
		tx := &txs[i]
		_, err := stmt.Exec(
			tx.Timestamp.Format(storedTimestampLayout),
			tx.RawIdentifier,
			tx.CanonicalVehicleID,
			tx.AmountNet,
			tx.AmountGross,
			tx.Currency,
			tx.Quantity,
			tx.Category,
			tx.ProductLabel,
			tx.SourceSystem,
			tx.Country,
			tx.CompanyTag,
			tx.Counterparty,
			tx.OriginalAmount,
			tx.OriginalCurrency,
			batchID,
			hashID(tx),
		)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
				duplicates++
				continue
			}
			return 0, 0, fmt.Errorf("error inserting transaction (vehicle: %s): %w", tx.CanonicalVehicleID, err)
		}
		inserted++
	}

	if err := dbTx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("error committing transactions: %w", err)
	}
	return inserted, duplicates, nil
}

func (s *importServiceImpl) SaveFile(fileName, companyTag string, data []byte) error {
	_, err := database.DB.Exec(
		`INSERT INTO saved_files (file_name, company_tag, file_data, uploaded_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(file_name) DO UPDATE SET company_tag = excluded.company_tag, file_data = excluded.file_data, uploaded_at = CURRENT_TIMESTAMP`,
		fileName, companyTag, data)
	if err != nil {
		return fmt.Errorf("error saving file '%s': %w", fileName, err)
	}
	return nil
}

func (s *importServiceImpl) LoadFile(fileName string) ([]byte, error) {
	var data []byte
	err := database.DB.QueryRow(`SELECT file_data FROM saved_files WHERE file_name = ?`, fileName).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("file '%s': %w", fileName, ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading file '%s': %w", fileName, err)
	}
	return data, nil
}

func (s *importServiceImpl) ListFiles() ([]models.SavedFile, error) {
	rows, err := database.DB.Query(`SELECT file_name, company_tag, uploaded_at, LENGTH(file_data) FROM saved_files ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("error listing saved files: %w", err)
	}
	defer rows.Close()

	var files []models.SavedFile
	for rows.Next() {
		var f models.SavedFile
		var uploadedAt string
		if err := rows.Scan(&f.FileName, &f.CompanyTag, &uploadedAt, &f.SizeBytes); err != nil {
			return nil, fmt.Errorf("error scanning saved file row: %w", err)
		}
		if t, err := time.Parse(storedTimestampLayout, uploadedAt); err == nil {
			f.UploadedAt = t
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *importServiceImpl) DeleteFile(fileName string) error {
	res, err := database.DB.Exec(`DELETE FROM saved_files WHERE file_name = ?`, fileName)
	if err != nil {
		return fmt.Errorf("error deleting file '%s': %w", fileName, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("file '%s': %w", fileName, ErrFileNotFound)
	}
	return nil
}

// MinMaxDates returns the stored transaction date range, used to preselect
// the reporting window.
func (s *importServiceImpl) MinMaxDates() (time.Time, time.Time, error) {
	var minStr, maxStr sql.NullString
	err := database.DB.QueryRow(`SELECT MIN(timestamp), MAX(timestamp) FROM transactions`).Scan(&minStr, &maxStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("error querying date range: %w", err)
	}
	if !minStr.Valid || !maxStr.Valid {
		return time.Time{}, time.Time{}, ErrNoData
	}
	minT, err := time.Parse(storedTimestampLayout, minStr.String)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	maxT, err := time.Parse(storedTimestampLayout, maxStr.String)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return minT, maxT, nil
}

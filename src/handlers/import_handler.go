package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/username/fleetledger/src/config"
	"github.com/username/fleetledger/src/logger"
	"github.com/username/fleetledger/src/services"
	"github.com/username/fleetledger/src/utils"
)

type ImportHandler struct {
	importService services.ImportService
	domain        *config.DomainConfig
}

func NewImportHandler(importService services.ImportService, domain *config.DomainConfig) *ImportHandler {
	return &ImportHandler{importService: importService, domain: domain}
}

// HandleImport ingests one or more export files for a company. Per-file
// problems surface in the per-file results; only a batch where nothing
// normalized is an error status.
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	company := r.FormValue("company")
	if !h.domain.KnownCompany(company) {
		utils.SendJSONError(w, "unknown company", http.StatusBadRequest)
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		utils.SendJSONError(w, "no files uploaded. Ensure the 'files' field is used.", http.StatusBadRequest)
		return
	}

	var files []services.UploadedFile
	for _, fh := range fileHeaders {
		if fh.Size > config.Cfg.MaxUploadSizeBytes {
			utils.SendJSONError(w, fmt.Sprintf("file '%s' too large, max %d MB", fh.Filename, config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
			return
		}
		f, err := fh.Open()
		if err != nil {
			utils.SendJSONError(w, fmt.Sprintf("failed to open uploaded file '%s'", fh.Filename), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			utils.SendJSONError(w, fmt.Sprintf("failed to read uploaded file '%s'", fh.Filename), http.StatusBadRequest)
			return
		}
		files = append(files, services.UploadedFile{Name: fh.Filename, Data: data})
	}

	logger.L.Info("Processing import batch", "company", company, "files", len(files))
	result, err := h.importService.ImportFiles(files, company)
	if err != nil {
		if errors.Is(err, services.ErrNoFilesNormalized) {
			// The per-file warnings explain what went wrong with each file.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(result)
			return
		}
		logger.L.Error("Internal error processing import batch", "company", company, "error", err)
		utils.SendJSONError(w, "An internal error occurred while processing the batch.", http.StatusInternalServerError)
		return
	}

	if r.FormValue("retain") == "true" {
		for _, file := range files {
			if err := h.importService.SaveFile(file.Name, company, file.Data); err != nil {
				logger.L.Warn("Failed to retain uploaded file", "file", file.Name, "error", err)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

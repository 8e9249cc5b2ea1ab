package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/username/fleetledger/src/logger"
	"github.com/username/fleetledger/src/models"
	"github.com/username/fleetledger/src/services"
	"github.com/username/fleetledger/src/utils"
)

type FileHandler struct {
	importService services.ImportService
}

func NewFileHandler(importService services.ImportService) *FileHandler {
	return &FileHandler{importService: importService}
}

func (h *FileHandler) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.importService.ListFiles()
	if err != nil {
		logger.L.Error("Failed to list retained files", "error", err)
		utils.SendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if files == nil {
		files = []models.SavedFile{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}

// HandleDownloadFile streams back a retained upload by name.
func (h *FileHandler) HandleDownloadFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || name != filepath.Base(name) {
		utils.SendJSONError(w, "invalid file name", http.StatusBadRequest)
		return
	}
	data, err := h.importService.LoadFile(name)
	if err != nil {
		if errors.Is(err, services.ErrFileNotFound) {
			utils.SendJSONError(w, "file not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load retained file", "file", name, "error", err)
		utils.SendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}

func (h *FileHandler) HandleDeleteFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || name != filepath.Base(name) {
		utils.SendJSONError(w, "invalid file name", http.StatusBadRequest)
		return
	}
	if err := h.importService.DeleteFile(name); err != nil {
		if errors.Is(err, services.ErrFileNotFound) {
			utils.SendJSONError(w, "file not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete retained file", "file", name, "error", err)
		utils.SendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package models

import "time"

// SavedFile describes one retained upload, without its payload.
type SavedFile struct {
	FileName   string    `json:"file_name"`
	CompanyTag string    `json:"company_tag"`
	UploadedAt time.Time `json:"uploaded_at"`
	SizeBytes  int64     `json:"size_bytes"`
}

package documents

import (
	"time"

	"docvault-backend/internal/extraction"
)

// Status is the document lifecycle state. Values are part of the stored
// record contract and must round-trip unchanged.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether a status has no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Metadata describes the uploaded file.
type Metadata struct {
	FileName     string                  `json:"fileName"`
	FileType     string                  `json:"fileType"`
	FileSize     int64                   `json:"fileSize"`
	UploadDate   string                  `json:"uploadDate"`
	DocumentType extraction.DocumentType `json:"documentType,omitempty"`
	PageCount    int                     `json:"pageCount,omitempty"`
}

// Document is the central entity: one uploaded file and its extraction state.
// StorageKey is derived at creation as {ownerId}/{id}/{fileName} and never
// recomputed afterward.
type Document struct {
	ID               string             `json:"id"`
	OwnerID          string             `json:"ownerId"`
	Status           Status             `json:"status"`
	Metadata         Metadata           `json:"metadata"`
	ExtractionResult *extraction.Result `json:"extractionResult,omitempty"`
	StorageKey       string             `json:"storageKey"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"docvault-backend/internal/extract"
	"docvault-backend/internal/extraction"
	"docvault-backend/internal/shared/metrics"
	"docvault-backend/internal/shared/storage/object"
	"docvault-backend/internal/shared/telemetry"
	"docvault-backend/internal/shared/util"
)

// uploadURLExpiry bounds how long an issued upload target stays valid.
const uploadURLExpiry = 15 * time.Minute

// UploadTarget is a time-limited write credential for a new document.
type UploadTarget struct {
	UploadURL  string `json:"uploadUrl"`
	DocumentID string `json:"documentId"`
}

// UploadEvent is one object-store notification record.
type UploadEvent struct {
	Bucket string
	Key    string
}

// Service orchestrates the document lifecycle: it creates records,
// coordinates uploads, runs extraction, and applies status transitions.
// Every call re-reads and re-writes authoritative state through the repo;
// the service itself holds no per-document state.
type Service struct {
	Repo      Repo
	Store     object.Store
	Extractor extraction.Extractor
}

// Create allocates a fresh document in PENDING with its storage key derived
// as {ownerId}/{id}/{fileName}. The only side effect is one metadata write.
func (s *Service) Create(ctx context.Context, ownerID string, meta Metadata) (Document, error) {
	if ownerID == "" || meta.FileName == "" || meta.FileType == "" {
		return Document{}, ErrInvalidInput
	}

	fileName, err := util.SanitizeFileName(meta.FileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	meta.FileName = fileName

	now := time.Now().UTC()
	if meta.UploadDate == "" {
		meta.UploadDate = now.Format(time.RFC3339)
	}

	documentID := uuid.NewString()
	doc := Document{
		ID:         documentID,
		OwnerID:    ownerID,
		Status:     StatusPending,
		Metadata:   meta,
		StorageKey: StorageKey(ownerID, documentID, meta.FileName),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// GenerateUploadTarget creates a PENDING document and issues a presigned
// upload URL scoped to its storage key and declared content type.
func (s *Service) GenerateUploadTarget(ctx context.Context, ownerID string, meta Metadata) (UploadTarget, error) {
	doc, err := s.Create(ctx, ownerID, meta)
	if err != nil {
		return UploadTarget{}, err
	}

	// Re-read through the repo before presigning; the record was just
	// written, but the lookup can still report not-found.
	doc, err = s.Repo.GetByID(ctx, doc.ID)
	if err != nil {
		return UploadTarget{}, err
	}

	uploadURL, err := s.Store.PresignPut(ctx, doc.StorageKey, doc.Metadata.FileType, uploadURLExpiry)
	if err != nil {
		return UploadTarget{}, fmt.Errorf("presign upload: %w", err)
	}

	metrics.IncUploadTargets()
	return UploadTarget{UploadURL: uploadURL, DocumentID: doc.ID}, nil
}

// Get returns a document by ID.
func (s *Service) Get(ctx context.Context, documentID string) (Document, error) {
	if documentID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, documentID)
}

// List returns the owner's documents, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Document, error) {
	if ownerID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByOwner(ctx, ownerID)
}

// Process runs the extraction pipeline for a document: transition to
// PROCESSING, fetch bytes, extract, then transition to COMPLETED with the
// result or FAILED without one. The PROCESSING transition is unconditional;
// re-running a document that is already PROCESSING (or terminal) simply
// re-executes extraction, with the later write winning.
func (s *Service) Process(ctx context.Context, documentID string) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, err
	}

	startedAt := time.Now()
	prev := doc.Status
	doc, err = s.Repo.UpdateStatus(ctx, doc.ID, StatusProcessing)
	if err != nil {
		return Document{}, fmt.Errorf("set processing: %w", err)
	}
	metrics.IncProcessingStarted()
	s.logTransition(doc, prev, StatusProcessing)

	result, err := s.runExtraction(ctx, doc)
	if err != nil {
		// The FAILED write must land even though the error is about to
		// propagate, so the record never stays stuck in PROCESSING.
		if failed, ferr := s.Repo.UpdateStatus(ctx, doc.ID, StatusFailed); ferr != nil {
			telemetry.Error("document.fail_status_write", map[string]any{
				"document_id": doc.ID,
				"err":         ferr.Error(),
			})
		} else {
			s.logTransition(failed, StatusProcessing, StatusFailed)
		}
		metrics.IncProcessingFailed()
		metrics.ObserveProcessingDurationMs(float64(time.Since(startedAt).Milliseconds()))
		return Document{}, err
	}

	updated, err := s.Repo.UpdateExtractionResult(ctx, doc.ID, result)
	if err != nil {
		metrics.IncProcessingFailed()
		return Document{}, fmt.Errorf("store extraction result: %w", err)
	}
	metrics.IncProcessingCompleted()
	metrics.ObserveProcessingDurationMs(float64(time.Since(startedAt).Milliseconds()))
	s.logTransition(updated, StatusProcessing, StatusCompleted)
	return updated, nil
}

// HandleUploadEvents processes a batch of object-store upload notifications.
// Records are handled independently and sequentially; malformed keys and
// per-record failures are logged and skipped, never aborting the batch.
func (s *Service) HandleUploadEvents(ctx context.Context, events []UploadEvent) {
	for _, event := range events {
		_, documentID, err := ParseStorageKey(event.Key)
		if err != nil {
			telemetry.Warn("document.event.malformed_key", map[string]any{
				"bucket": event.Bucket,
				"key":    event.Key,
			})
			continue
		}

		if _, err := s.Process(ctx, documentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				telemetry.Warn("document.event.unknown_document", map[string]any{
					"document_id": documentID,
					"key":         event.Key,
				})
				continue
			}
			// The record is already FAILED; the event is considered handled.
			telemetry.Error("document.event.process_failed", map[string]any{
				"document_id": documentID,
				"key":         event.Key,
				"err":         err.Error(),
			})
		}
	}
}

// Delete removes the metadata record, then best-effort deletes the stored
// bytes. Metadata deletion is the authoritative delete; a failed object
// delete is logged and swallowed.
func (s *Service) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return ErrInvalidInput
	}

	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.Repo.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
		telemetry.Error("document.delete.object_cleanup_failed", map[string]any{
			"document_id": doc.ID,
			"storage_key": doc.StorageKey,
			"err":         err.Error(),
		})
	}

	metrics.IncDocumentsDeleted()
	return nil
}

func (s *Service) runExtraction(ctx context.Context, doc Document) (*extraction.Result, error) {
	body, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("fetch document bytes: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read document bytes: %w", err)
	}

	text, err := extract.TextFromBytes(data, doc.Metadata.FileType, doc.Metadata.FileName)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	docType := extraction.NormalizeType(doc.Metadata.DocumentType)
	result, err := s.Extractor.Extract(ctx, text, docType)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) logTransition(doc Document, from, to Status) {
	telemetry.Info("document.status", map[string]any{
		"document_id":       doc.ID,
		"owner_id":          doc.OwnerID,
		"status":            string(to),
		"status_transition": string(from) + "->" + string(to),
	})
}

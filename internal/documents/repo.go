package documents

import (
	"context"

	"docvault-backend/internal/extraction"
)

// Repo defines persistence operations for documents. Individual calls are
// atomic per record; there are no cross-record transactions and no
// conditional writes, so concurrent updates to one document resolve by
// last-write-wins.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Document, error)
	// UpdateStatus moves the document to status and advances updatedAt.
	UpdateStatus(ctx context.Context, documentID string, status Status) (Document, error)
	// UpdateExtractionResult sets status COMPLETED and attaches the result
	// in a single write, so a result is present iff the status is COMPLETED.
	UpdateExtractionResult(ctx context.Context, documentID string, result *extraction.Result) (Document, error)
	Delete(ctx context.Context, documentID string) error
}

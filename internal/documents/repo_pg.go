package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"docvault-backend/internal/extraction"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, owner_id, status, metadata, extraction_result, storage_key, created_at, updated_at`

// Create inserts a new document record.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, owner_id, status, metadata, extraction_result, storage_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return err
	}
	result, err := marshalResult(doc.ExtractionResult)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.OwnerID,
		string(doc.Status),
		metadata,
		result,
		doc.StorageKey,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// GetByID returns a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	const query = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
}

// ListByOwner returns the owner's documents, newest first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	const query = `SELECT ` + documentColumns + ` FROM documents WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateStatus moves the document to status and advances updated_at.
func (r *PGRepo) UpdateStatus(ctx context.Context, documentID string, status Status) (Document, error) {
	const query = `
UPDATE documents SET status = $2, updated_at = $3 WHERE id = $1
RETURNING ` + documentColumns
	return scanDocument(r.DB.QueryRowContext(ctx, query, documentID, string(status), time.Now().UTC()))
}

// UpdateExtractionResult sets COMPLETED and the result in the same write.
func (r *PGRepo) UpdateExtractionResult(ctx context.Context, documentID string, result *extraction.Result) (Document, error) {
	const query = `
UPDATE documents SET status = $2, extraction_result = $3, updated_at = $4 WHERE id = $1
RETURNING ` + documentColumns

	payload, err := marshalResult(result)
	if err != nil {
		return Document{}, err
	}
	return scanDocument(r.DB.QueryRowContext(ctx, query, documentID, string(StatusCompleted), payload, time.Now().UTC()))
}

// Delete removes a document record.
func (r *PGRepo) Delete(ctx context.Context, documentID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc        Document
		status     string
		metadata   []byte
		resultJSON sql.Null[[]byte]
	)
	err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&status,
		&metadata,
		&resultJSON,
		&doc.StorageKey,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}

	doc.Status = Status(status)
	if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
		return Document{}, err
	}
	if resultJSON.Valid && len(resultJSON.V) > 0 {
		var result extraction.Result
		if err := json.Unmarshal(resultJSON.V, &result); err != nil {
			return Document{}, err
		}
		doc.ExtractionResult = &result
	}
	return doc, nil
}

func marshalResult(result *extraction.Result) (any, error) {
	if result == nil {
		return nil, nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

var _ Repo = (*PGRepo)(nil)

package object

import (
	"context"
	"io"
	"time"
)

// Store defines the contract for the document byte store: direct reads and
// writes by storage key plus time-limited write credentials for browser
// uploads.
type Store interface {
	// PresignPut returns a URL a client can PUT the object to until expires.
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	// Open reads back a stored object.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Put writes an object directly (server-side uploads, tests).
	Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	// Delete removes an object. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

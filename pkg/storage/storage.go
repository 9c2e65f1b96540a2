// Package storage archives committed statement files so an import can be audited or
// replayed later.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no archived statement has the requested ID.
var ErrNotFound = errors.New("archived statement not found")

// Record describes one archived statement.
type Record struct {
	ID         uuid.UUID `json:"id"` // import session ID
	Name       string    `json:"name"`
	Format     string    `json:"format"`
	Size       int64     `json:"size"`
	SHA256     string    `json:"sha256"`
	Inserted   int       `json:"inserted"`
	Duplicates int       `json:"duplicates"`
	Path       string    `json:"path"` // relative to the user's directory
	CreatedAt  time.Time `json:"created_at"`
}

// Archive stores the raw bytes of committed statements per user.
type Archive interface {
	// Store copies r and writes rec alongside it. ID, Name and the import counts come
	// from the caller; Size, SHA256, Path and CreatedAt are filled in.
	Store(ctx context.Context, userID uuid.UUID, rec Record, r io.Reader) (*Record, error)

	// Open returns the archived bytes of a statement.
	Open(ctx context.Context, userID, id uuid.UUID) (io.ReadCloser, *Record, error)

	// List returns a user's archived statements, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]*Record, error)

	// FindByHash returns the archived statements whose content hash matches.
	FindByHash(ctx context.Context, userID uuid.UUID, sha string) ([]*Record, error)
}

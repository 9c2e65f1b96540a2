// Package repository persists imported transactions and remembered column mappings.
package repository

import (
	"context"
	"errors"

	"github.com/FACorreiaa/statement-import/internal/domain/import/dedup"
	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

// ErrEmptyProfileKey is returned when a mapping is saved without a bank profile key.
var ErrEmptyProfileKey = errors.New("bank profile key is empty")

// LedgerWriter appends a categorized batch atomically: either every row is stored or none.
type LedgerWriter interface {
	InsertBatch(ctx context.Context, batch []model.CategorizedTransaction) (int, error)
}

// Ledger reads and writes the user's transaction history.
type Ledger interface {
	dedup.LedgerReader
	LedgerWriter
}

// MappingStore remembers confirmed column mappings per bank profile key.
// LoadMapping returns nil, nil when nothing is stored for the key.
type MappingStore interface {
	LoadMapping(ctx context.Context, key string) (*model.ColumnMapping, error)
	SaveMapping(ctx context.Context, key string, m model.ColumnMapping) error
}

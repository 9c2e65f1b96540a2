package repository

import (
	"context"
	"sync"
	"time"

	"github.com/FACorreiaa/statement-import/internal/domain/import/dedup"
	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

// MemoryLedger is an in-process Ledger used for dry runs and tests.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries []model.CategorizedTransaction
	// FailInsert, when set, is returned by InsertBatch and nothing is stored.
	FailInsert error
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

// TransactionsInDateRange implements dedup.LedgerReader.
func (l *MemoryLedger) TransactionsInDateRange(_ context.Context, from, to time.Time) ([]dedup.LedgerEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []dedup.LedgerEntry
	for _, t := range l.entries {
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		abs := t.SignedAmountMinor
		if abs < 0 {
			abs = -abs
		}
		out = append(out, dedup.LedgerEntry{
			Date:        t.Date,
			Kind:        t.Kind(),
			AbsAmount:   abs,
			Description: t.Description,
		})
	}
	return out, nil
}

// InsertBatch implements LedgerWriter.
func (l *MemoryLedger) InsertBatch(_ context.Context, batch []model.CategorizedTransaction) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.FailInsert != nil {
		return 0, l.FailInsert
	}
	l.entries = append(l.entries, batch...)
	return len(batch), nil
}

// All returns a copy of every stored transaction in insertion order.
func (l *MemoryLedger) All() []model.CategorizedTransaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.CategorizedTransaction(nil), l.entries...)
}

// MemoryMappings is an in-process MappingStore.
type MemoryMappings struct {
	mu       sync.RWMutex
	mappings map[string]model.ColumnMapping
}

// NewMemoryMappings creates an empty mapping store.
func NewMemoryMappings() *MemoryMappings {
	return &MemoryMappings{mappings: make(map[string]model.ColumnMapping)}
}

// LoadMapping implements MappingStore.
func (s *MemoryMappings) LoadMapping(_ context.Context, key string) (*model.ColumnMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.mappings[key]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// SaveMapping implements MappingStore.
func (s *MemoryMappings) SaveMapping(_ context.Context, key string, m model.ColumnMapping) error {
	if key == "" {
		return ErrEmptyProfileKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[key] = m
	return nil
}

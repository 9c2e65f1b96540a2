// Package dedup filters freshly normalized transactions against entries already in the
// ledger. New and stored records are fingerprinted by the same function.
package dedup

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

// LedgerEntry is the subset of a stored transaction needed for duplicate detection.
type LedgerEntry struct {
	Date        time.Time
	Kind        string // "expense" or "income"
	AbsAmount   int64  // minor units
	Description string
}

// LedgerReader reads stored entries over an inclusive date range.
type LedgerReader interface {
	TransactionsInDateRange(ctx context.Context, from, to time.Time) ([]LedgerEntry, error)
}

// Fingerprint builds the duplicate-detection key for a signed amount.
func Fingerprint(date time.Time, signedMinor int64, description string) string {
	abs := signedMinor
	if abs < 0 {
		abs = -abs
	}
	return key(date, model.KindFor(signedMinor), abs, description)
}

// EntryFingerprint builds the key for a stored ledger entry.
func EntryFingerprint(e LedgerEntry) string {
	abs := e.AbsAmount
	if abs < 0 {
		abs = -abs
	}
	return key(e.Date, strings.ToLower(strings.TrimSpace(e.Kind)), abs, e.Description)
}

func key(date time.Time, kind string, abs int64, description string) string {
	return date.Format("2006-01-02") + "|" + kind + "|" + strconv.FormatInt(abs, 10) + "|" + NormalizeDescription(description)
}

// NormalizeDescription lower-cases and collapses whitespace runs.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// DateSpan returns the earliest and latest dates in a batch.
func DateSpan(batch []model.NormalizedTransaction) (time.Time, time.Time) {
	var min, max time.Time
	for i, tx := range batch {
		if i == 0 || tx.Date.Before(min) {
			min = tx.Date
		}
		if i == 0 || tx.Date.After(max) {
			max = tx.Date
		}
	}
	return min, max
}

// Filter drops transactions whose fingerprint matches an existing ledger entry in the
// batch's date span. Repeats within the batch itself are kept.
func Filter(ctx context.Context, batch []model.NormalizedTransaction, reader LedgerReader) ([]model.NormalizedTransaction, int, error) {
	if len(batch) == 0 {
		return batch, 0, nil
	}

	from, to := DateSpan(batch)
	existing, err := reader.TransactionsInDateRange(ctx, from, to)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load ledger entries: %w", err)
	}

	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[EntryFingerprint(e)] = struct{}{}
	}

	kept := make([]model.NormalizedTransaction, 0, len(batch))
	duplicates := 0
	for _, tx := range batch {
		if _, dup := seen[Fingerprint(tx.Date, tx.SignedAmountMinor, tx.Description)]; dup {
			duplicates++
			continue
		}
		kept = append(kept, tx)
	}
	return kept, duplicates, nil
}

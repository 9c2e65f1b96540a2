package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

type fakeLedger struct {
	entries  []LedgerEntry
	from, to time.Time
	err      error
}

func (f *fakeLedger) TransactionsInDateRange(_ context.Context, from, to time.Time) ([]LedgerEntry, error) {
	f.from, f.to = from, to
	if f.err != nil {
		return nil, f.err
	}
	var out []LedgerEntry
	for _, e := range f.entries {
		if !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFingerprint(t *testing.T) {
	d := date(2026, 1, 5)
	assert.Equal(t, "2026-01-05|expense|450|coffee shop", Fingerprint(d, -450, "  Coffee   SHOP "))
	assert.Equal(t, "2026-01-05|income|250000|payroll", Fingerprint(d, 250000, "Payroll"))

	entry := LedgerEntry{Date: d, Kind: "Expense", AbsAmount: 450, Description: "coffee shop"}
	assert.Equal(t, Fingerprint(d, -450, "Coffee Shop"), EntryFingerprint(entry))
}

func TestFilter(t *testing.T) {
	batch := []model.NormalizedTransaction{
		{Date: date(2026, 1, 5), Description: "Coffee Shop", SignedAmountMinor: -450},
		{Date: date(2026, 1, 6), Description: "Payroll", SignedAmountMinor: 250000},
		{Date: date(2026, 1, 6), Description: "Payroll", SignedAmountMinor: 250000},
		{Date: date(2026, 1, 7), Description: "Refund", SignedAmountMinor: 450},
	}

	ledger := &fakeLedger{entries: []LedgerEntry{
		{Date: date(2026, 1, 5), Kind: model.KindExpense, AbsAmount: 450, Description: "COFFEE SHOP"},
		{Date: date(2026, 1, 7), Kind: model.KindExpense, AbsAmount: 450, Description: "Refund"},
		{Date: date(2026, 1, 8), Kind: model.KindIncome, AbsAmount: 450, Description: "Refund"},
	}}

	kept, dups, err := Filter(context.Background(), batch, ledger)
	require.NoError(t, err)
	assert.Equal(t, 1, dups)
	require.Len(t, kept, 3, "within-batch repeats are not removed")
	assert.Equal(t, "Payroll", kept[0].Description)
	assert.Equal(t, "Refund", kept[2].Description, "kind is part of the key")

	assert.Equal(t, date(2026, 1, 5), ledger.from)
	assert.Equal(t, date(2026, 1, 7), ledger.to)
}

func TestFilter_ReaderError(t *testing.T) {
	batch := []model.NormalizedTransaction{{Date: date(2026, 1, 5), SignedAmountMinor: 1}}
	_, _, err := Filter(context.Background(), batch, &fakeLedger{err: errors.New("boom")})
	assert.Error(t, err)
}

func TestFilter_EmptyBatchSkipsReader(t *testing.T) {
	ledger := &fakeLedger{err: errors.New("should not be called")}
	kept, dups, err := Filter(context.Background(), nil, ledger)
	require.NoError(t, err)
	assert.Empty(t, kept)
	assert.Zero(t, dups)
}

func TestFilter_ReimportConverges(t *testing.T) {
	faker := gofakeit.New(42)
	start := date(2025, 1, 1)

	batch := make([]model.NormalizedTransaction, 0, 200)
	for i := 0; i < 200; i++ {
		amount := int64(faker.IntRange(1, 500000))
		if faker.Bool() {
			amount = -amount
		}
		batch = append(batch, model.NormalizedTransaction{
			Date:              start.AddDate(0, 0, faker.IntRange(0, 364)),
			Description:       faker.Company() + " " + faker.City(),
			SignedAmountMinor: amount,
		})
	}

	ledger := &fakeLedger{}
	first, dups, err := Filter(context.Background(), batch, ledger)
	require.NoError(t, err)
	assert.Zero(t, dups)

	for _, tx := range first {
		abs := tx.SignedAmountMinor
		if abs < 0 {
			abs = -abs
		}
		ledger.entries = append(ledger.entries, LedgerEntry{
			Date: tx.Date, Kind: tx.Kind(), AbsAmount: abs, Description: tx.Description,
		})
	}

	second, dups, err := Filter(context.Background(), batch, ledger)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, len(batch), dups)
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLedgerRepository_TransactionsInDateRange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()
	from, to := day(2024, 1, 1), day(2024, 1, 31)

	mock.ExpectQuery(`SELECT posted_on, description, amount_minor`).
		WithArgs(userID, from, to).
		WillReturnRows(pgxmock.NewRows([]string{"posted_on", "description", "amount_minor"}).
			AddRow(day(2024, 1, 15), "COFFEE SHOP", int64(-450)).
			AddRow(day(2024, 1, 20), "SALARY", int64(250000)))

	entries, err := NewLedgerRepository(mock, userID, "USD").TransactionsInDateRange(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, model.KindExpense, entries[0].Kind)
	assert.Equal(t, int64(450), entries[0].AbsAmount)
	assert.Equal(t, model.KindIncome, entries[1].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_InsertBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()
	ruleID := uuid.New()
	batch := []model.CategorizedTransaction{
		{
			NormalizedTransaction: model.NormalizedTransaction{Date: day(2024, 1, 15), Description: "COFFEE SHOP", SignedAmountMinor: -450, SourceLine: 1},
			CategoryID:            7,
			RuleID:                &ruleID,
		},
		{
			NormalizedTransaction: model.NormalizedTransaction{Date: day(2024, 1, 16), Description: "SALARY", SignedAmountMinor: 250000, SourceLine: 2},
			CategoryID:            1,
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(userID, day(2024, 1, 15), "COFFEE SHOP", int64(-450), "USD", int64(7), &ruleID, pgxmock.AnyArg(), 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(userID, day(2024, 1, 16), "SALARY", int64(250000), "USD", int64(1), pgxmock.AnyArg(), pgxmock.AnyArg(), 2).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := NewLedgerRepository(mock, userID, "USD").InsertBatch(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_InsertBatch_StatementCurrency(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()
	batch := []model.CategorizedTransaction{
		{
			NormalizedTransaction: model.NormalizedTransaction{Date: day(2024, 1, 15), Description: "STARBUCKS", SignedAmountMinor: -1234},
			CategoryID:            7,
			Currency:              "USD",
		},
		{
			NormalizedTransaction: model.NormalizedTransaction{Date: day(2024, 1, 16), Description: "REFUND", SignedAmountMinor: 500, SourceLine: 1},
			CategoryID:            1,
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(userID, day(2024, 1, 15), "STARBUCKS", int64(-1234), "USD", int64(7), pgxmock.AnyArg(), pgxmock.AnyArg(), 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(userID, day(2024, 1, 16), "REFUND", int64(500), "EUR", int64(1), pgxmock.AnyArg(), pgxmock.AnyArg(), 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := NewLedgerRepository(mock, userID, "EUR").InsertBatch(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_InsertBatch_RollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()
	batch := []model.CategorizedTransaction{{
		NormalizedTransaction: model.NormalizedTransaction{Date: day(2024, 1, 15), Description: "X", SignedAmountMinor: -1},
		CategoryID:            1,
	}}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO transactions`).WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	n, err := NewLedgerRepository(mock, userID, "").InsertBatch(context.Background(), batch)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Contains(t, err.Error(), "line 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_InsertBatch_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n, err := NewLedgerRepository(mock, uuid.New(), "EUR").InsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryLedger(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	_, err := l.InsertBatch(ctx, []model.CategorizedTransaction{
		{NormalizedTransaction: model.NormalizedTransaction{Date: day(2024, 1, 15), Description: "A", SignedAmountMinor: -100}},
		{NormalizedTransaction: model.NormalizedTransaction{Date: day(2024, 3, 1), Description: "B", SignedAmountMinor: 100}},
	})
	require.NoError(t, err)

	entries, err := l.TransactionsInDateRange(ctx, day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].Description)

	l.FailInsert = errors.New("disk full")
	_, err = l.InsertBatch(ctx, []model.CategorizedTransaction{{}})
	require.Error(t, err)
	assert.Len(t, l.All(), 2)
}

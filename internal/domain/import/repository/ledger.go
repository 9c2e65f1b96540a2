package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-import/internal/domain/import/dedup"
	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
	"github.com/FACorreiaa/statement-import/pkg/db"
)

// LedgerRepository implements Ledger on the transactions table for one user.
type LedgerRepository struct {
	db       db.DBTX
	userID   uuid.UUID
	currency string
}

// NewLedgerRepository creates a ledger scoped to a user. currency is the ISO 4217 code
// stored with rows whose statement named none.
func NewLedgerRepository(conn db.DBTX, userID uuid.UUID, currency string) *LedgerRepository {
	if currency == "" {
		currency = "EUR"
	}
	return &LedgerRepository{db: conn, userID: userID, currency: currency}
}

// TransactionsInDateRange returns the user's entries posted between from and to, inclusive.
func (r *LedgerRepository) TransactionsInDateRange(ctx context.Context, from, to time.Time) ([]dedup.LedgerEntry, error) {
	query := `
		SELECT posted_on, description, amount_minor
		FROM transactions
		WHERE user_id = $1 AND posted_on BETWEEN $2 AND $3
		ORDER BY posted_on`

	rows, err := r.db.Query(ctx, query, r.userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var entries []dedup.LedgerEntry
	for rows.Next() {
		var (
			postedOn time.Time
			desc     string
			amount   int64
		)
		if err := rows.Scan(&postedOn, &desc, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		abs := amount
		if abs < 0 {
			abs = -abs
		}
		entries = append(entries, dedup.LedgerEntry{
			Date:        postedOn,
			Kind:        model.KindFor(amount),
			AbsAmount:   abs,
			Description: desc,
		})
	}
	return entries, rows.Err()
}

// InsertBatch stores the batch in one database transaction, tagged with a fresh import ID.
func (r *LedgerRepository) InsertBatch(ctx context.Context, batch []model.CategorizedTransaction) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO transactions (user_id, posted_on, description, amount_minor, currency_code, category_id, rule_id, import_id, source_line)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	importID := uuid.New()
	for _, t := range batch {
		currency := t.Currency
		if currency == "" {
			currency = r.currency
		}
		_, err := tx.Exec(ctx, query,
			r.userID,
			t.Date,
			t.Description,
			t.SignedAmountMinor,
			currency,
			t.CategoryID,
			t.RuleID,
			importID,
			t.SourceLine,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction from line %d: %w", t.SourceLine+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return len(batch), nil
}

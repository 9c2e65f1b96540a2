package categorization

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-import/pkg/db"
)

// RuleStore supplies the rule set for an import.
type RuleStore interface {
	EnabledRules(ctx context.Context) ([]MerchantRule, error)
}

// Repository reads and writes one user's merchant rules.
type Repository struct {
	db     db.DBTX
	userID uuid.UUID
}

// NewRepository creates a rule repository scoped to a user.
func NewRepository(conn db.DBTX, userID uuid.UUID) *Repository {
	return &Repository{db: conn, userID: userID}
}

// EnabledRules fetches enabled rules ordered by priority, newest first among equals.
func (r *Repository) EnabledRules(ctx context.Context) ([]MerchantRule, error) {
	query := `
		SELECT id, pattern, match_type, category_id, priority, enabled, created_at
		FROM merchant_rules
		WHERE user_id = $1 AND enabled = true
		ORDER BY priority DESC, created_at DESC
	`

	rows, err := r.db.Query(ctx, query, r.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchant rules: %w", err)
	}
	defer rows.Close()

	var rules []MerchantRule
	for rows.Next() {
		var (
			rule      MerchantRule
			matchType string
		)
		if err := rows.Scan(
			&rule.ID,
			&rule.Pattern,
			&matchType,
			&rule.CategoryID,
			&rule.Priority,
			&rule.Enabled,
			&rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan merchant rule: %w", err)
		}
		// The table constrains match_type, so an unknown value falls back to CONTAINS.
		if mt, err := ParseMatchType(matchType); err == nil {
			rule.MatchType = mt
		} else {
			rule.MatchType = MatchContains
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// CreateRule inserts a rule and fills in its generated ID and timestamp.
func (r *Repository) CreateRule(ctx context.Context, rule *MerchantRule) error {
	query := `
		INSERT INTO merchant_rules (user_id, pattern, match_type, category_id, priority, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		r.userID,
		rule.Pattern,
		string(rule.MatchType),
		rule.CategoryID,
		rule.Priority,
		rule.Enabled,
	).Scan(&rule.ID, &rule.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert merchant rule: %w", err)
	}
	return nil
}

// StaticRules serves a fixed rule set, for dry runs and tests.
type StaticRules []MerchantRule

// EnabledRules implements RuleStore.
func (s StaticRules) EnabledRules(context.Context) ([]MerchantRule, error) {
	return SortRules(s), nil
}

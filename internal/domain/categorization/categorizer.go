package categorization

import (
	"context"
	"fmt"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

// Result is the outcome of categorizing a batch.
type Result struct {
	Transactions []model.CategorizedTransaction
	Matched      int
	Warnings     []string
	Suggestions  []Suggestion
}

// Categorizer loads the rule set once per batch and applies it.
type Categorizer struct {
	store RuleStore
}

// NewCategorizer creates a categorizer backed by a rule store.
func NewCategorizer(store RuleStore) *Categorizer {
	return &Categorizer{store: store}
}

// Categorize assigns a category to each transaction, using defaultCategory when no rule
// matches. Input order is preserved.
func (c *Categorizer) Categorize(ctx context.Context, batch []model.NormalizedTransaction, defaultCategory int64) (*Result, error) {
	rules, err := c.store.EnabledRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant rules: %w", err)
	}

	engine := NewEngine(rules)
	res := &Result{
		Transactions: make([]model.CategorizedTransaction, len(batch)),
		Warnings:     engine.Warnings(),
	}

	descriptions := make([]string, len(batch))
	for i, tx := range batch {
		descriptions[i] = tx.Description
	}

	var unmatched []string
	for i, m := range engine.MatchBatch(descriptions) {
		out := model.CategorizedTransaction{NormalizedTransaction: batch[i], CategoryID: defaultCategory}
		if m != nil {
			id := m.RuleID
			out.CategoryID = m.CategoryID
			out.RuleID = &id
			res.Matched++
		} else {
			unmatched = append(unmatched, batch[i].Description)
		}
		res.Transactions[i] = out
	}

	res.Suggestions = Suggest(unmatched, rules, DefaultSuggestThreshold)
	return res, nil
}

package categorization

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

type failingStore struct{}

func (failingStore) EnabledRules(context.Context) ([]MerchantRule, error) {
	return nil, errors.New("db down")
}

func TestCategorizer_Categorize(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	coffee := rule("coffee", MatchContains, 7, 10, day)

	batch := []model.NormalizedTransaction{
		{Date: day, Description: "COFFEE SHOP", SignedAmountMinor: -450, SourceLine: 1},
		{Date: day, Description: "SALARY", SignedAmountMinor: 250000, SourceLine: 2},
	}

	res, err := NewCategorizer(StaticRules{coffee}).Categorize(context.Background(), batch, 1)
	require.NoError(t, err)
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, 1, res.Matched)

	assert.Equal(t, int64(7), res.Transactions[0].CategoryID)
	require.NotNil(t, res.Transactions[0].RuleID)
	assert.Equal(t, coffee.ID, *res.Transactions[0].RuleID)
	assert.Equal(t, int64(-450), res.Transactions[0].SignedAmountMinor)

	assert.Equal(t, int64(1), res.Transactions[1].CategoryID)
	assert.Nil(t, res.Transactions[1].RuleID)
}

func TestCategorizer_StoreError(t *testing.T) {
	_, err := NewCategorizer(failingStore{}).Categorize(context.Background(), nil, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load merchant rules")
}

func TestSuggest(t *testing.T) {
	base := time.Now()
	rules := []MerchantRule{
		rule("starbucks", MatchContains, 7, 0, base),
		rule(`^x`, MatchRegex, 9, 0, base),
	}

	got := Suggest([]string{"STARBUKS 1234", "starbuks 1234", "RENT"}, rules, DefaultSuggestThreshold)
	require.Len(t, got, 1)
	assert.Equal(t, "starbucks", got[0].Pattern)
	assert.Equal(t, int64(7), got[0].CategoryID)
	assert.GreaterOrEqual(t, got[0].Score, DefaultSuggestThreshold)
}

// Package categorization assigns spending categories to transactions from a prioritized
// set of user merchant rules.
package categorization

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MatchType selects how a rule pattern is compared to a description.
type MatchType string

const (
	MatchContains   MatchType = "CONTAINS"
	MatchStartsWith MatchType = "STARTS_WITH"
	MatchRegex      MatchType = "REGEX"
)

// ParseMatchType accepts the stored spelling case-insensitively.
func ParseMatchType(s string) (MatchType, error) {
	switch MatchType(strings.ToUpper(strings.TrimSpace(s))) {
	case MatchContains, "":
		return MatchContains, nil
	case MatchStartsWith, "STARTSWITH", "PREFIX":
		return MatchStartsWith, nil
	case MatchRegex, "REGEXP":
		return MatchRegex, nil
	}
	return "", fmt.Errorf("unknown match type %q", s)
}

// MerchantRule maps descriptions matching Pattern to CategoryID.
type MerchantRule struct {
	ID         uuid.UUID
	Pattern    string
	MatchType  MatchType
	CategoryID int64
	Priority   int
	Enabled    bool
	CreatedAt  time.Time
}

// SortRules keeps enabled rules ordered by priority, newest first among equals.
// The input slice is not modified.
func SortRules(rules []MerchantRule) []MerchantRule {
	out := make([]MerchantRule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

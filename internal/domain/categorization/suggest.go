package categorization

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggestion is a near-miss rule for a description that no rule matched. Suggestions are
// hints for the user when editing rules; they never change a category.
type Suggestion struct {
	Description string
	Pattern     string
	CategoryID  int64
	Score       int // 0-100, higher is closer
}

// DefaultSuggestThreshold is the minimum score reported by Suggest.
const DefaultSuggestThreshold = 60

// Suggest returns, for each distinct description, the closest CONTAINS or STARTS_WITH
// rule pattern scoring at least threshold. Results are sorted by score, best first.
func Suggest(descriptions []string, rules []MerchantRule, threshold int) []Suggestion {
	ordered := SortRules(rules)
	seen := make(map[string]bool)
	var out []Suggestion

	for _, desc := range descriptions {
		key := strings.ToLower(strings.TrimSpace(desc))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		var best *Suggestion
		for _, r := range ordered {
			if r.MatchType == MatchRegex {
				continue
			}
			pattern := strings.ToLower(strings.TrimSpace(r.Pattern))
			if pattern == "" {
				continue
			}
			score := similarity(key, pattern)
			if score >= threshold && (best == nil || score > best.Score) {
				best = &Suggestion{Description: desc, Pattern: r.Pattern, CategoryID: r.CategoryID, Score: score}
			}
		}
		if best != nil {
			out = append(out, *best)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// similarity scores a pattern against a description: per-word edit distance for typos
// ("starbuks" vs "starbucks"), falling back to an in-order subsequence match.
func similarity(description, pattern string) int {
	best := 0
	for _, word := range strings.Fields(description) {
		maxLen := len(word)
		if len(pattern) > maxLen {
			maxLen = len(pattern)
		}
		if maxLen == 0 {
			continue
		}
		d := fuzzy.LevenshteinDistance(word, pattern)
		if score := 100 * (maxLen - d) / maxLen; score > best {
			best = score
		}
	}

	if rank := fuzzy.RankMatchNormalizedFold(pattern, description); rank >= 0 {
		// rank counts the characters skipped to fit the pattern in; fewer is closer.
		if score := 70 - rank*30/len(description); score > best {
			best = score
		}
	}
	return best
}

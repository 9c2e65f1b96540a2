package categorization

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/google/uuid"
)

// Match is the rule that categorized a description.
type Match struct {
	RuleID     uuid.UUID
	CategoryID int64
	Pattern    string
	MatchType  MatchType
	Priority   int
}

type compiledRule struct {
	rule    MerchantRule
	lower   string         // lower-cased pattern for CONTAINS and STARTS_WITH
	acIndex int            // index into the Aho-Corasick dictionary, CONTAINS only
	re      *regexp.Regexp // REGEX only
}

// Engine evaluates rules in priority order and returns the first match.
// CONTAINS patterns share one Aho-Corasick automaton, so a description is scanned once
// for all of them regardless of how many rules exist.
type Engine struct {
	rules    []compiledRule
	matcher  *ahocorasick.Matcher
	warnings []string
	mu       sync.RWMutex
}

// NewEngine builds an engine from a rule set. Disabled rules, blank patterns and
// malformed regular expressions are dropped; the latter are reported by Warnings.
func NewEngine(rules []MerchantRule) *Engine {
	e := &Engine{}
	e.Build(rules)
	return e
}

// Build replaces the engine's rule set.
func (e *Engine) Build(rules []MerchantRule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ordered := SortRules(rules)
	compiled := make([]compiledRule, 0, len(ordered))
	var warnings []string

	// Duplicate CONTAINS patterns share one dictionary slot.
	patternToIndex := make(map[string]int)
	var dictionary [][]byte

	for _, r := range ordered {
		pattern := strings.TrimSpace(r.Pattern)
		if pattern == "" {
			continue
		}

		c := compiledRule{rule: r, lower: strings.ToLower(pattern), acIndex: -1}
		switch r.MatchType {
		case MatchRegex:
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("rule %s: invalid regular expression %q skipped: %v", r.ID, r.Pattern, err))
				continue
			}
			c.re = re
		case MatchStartsWith:
		default:
			c.rule.MatchType = MatchContains
			idx, ok := patternToIndex[c.lower]
			if !ok {
				idx = len(dictionary)
				patternToIndex[c.lower] = idx
				dictionary = append(dictionary, []byte(c.lower))
			}
			c.acIndex = idx
		}
		compiled = append(compiled, c)
	}

	e.rules = compiled
	e.warnings = warnings
	e.matcher = nil
	if len(dictionary) > 0 {
		e.matcher = ahocorasick.NewMatcher(dictionary)
	}
}

// Match returns the highest-ranked rule matching the description, or nil.
func (e *Engine) Match(description string) *Match {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.match(description)
}

// MatchBatch matches many descriptions under a single lock.
func (e *Engine) MatchBatch(descriptions []string) []*Match {
	e.mu.RLock()
	defer e.mu.RUnlock()

	results := make([]*Match, len(descriptions))
	for i, desc := range descriptions {
		results[i] = e.match(desc)
	}
	return results
}

func (e *Engine) match(description string) *Match {
	if len(e.rules) == 0 {
		return nil
	}

	lower := strings.ToLower(description)

	var hits map[int]bool
	if e.matcher != nil {
		found := e.matcher.Match([]byte(lower))
		hits = make(map[int]bool, len(found))
		for _, idx := range found {
			hits[idx] = true
		}
	}

	for i := range e.rules {
		c := &e.rules[i]
		var ok bool
		switch c.rule.MatchType {
		case MatchRegex:
			ok = c.re.MatchString(description)
		case MatchStartsWith:
			ok = strings.HasPrefix(lower, c.lower)
		default:
			ok = hits[c.acIndex]
		}
		if ok {
			return &Match{
				RuleID:     c.rule.ID,
				CategoryID: c.rule.CategoryID,
				Pattern:    c.rule.Pattern,
				MatchType:  c.rule.MatchType,
				Priority:   c.rule.Priority,
			}
		}
	}
	return nil
}

// Warnings lists rules that were skipped while building.
func (e *Engine) Warnings() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.warnings...)
}

// RuleCount returns the number of active rules.
func (e *Engine) RuleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

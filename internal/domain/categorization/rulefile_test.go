package categorization

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRulesCSV(t *testing.T) {
	input := `pattern,match_type,category_id,priority,enabled,created_at
coffee,CONTAINS,7,10,true,2026-01-01T00:00:00Z
uber,starts_with,3,,,
^amzn,REGEX,4,5,false,
`
	rules, err := LoadRulesCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rules, 3)

	assert.Equal(t, "coffee", rules[0].Pattern)
	assert.Equal(t, int64(7), rules[0].CategoryID)
	assert.Equal(t, 10, rules[0].Priority)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), rules[0].CreatedAt)

	assert.Equal(t, MatchStartsWith, rules[1].MatchType)
	assert.Equal(t, 0, rules[1].Priority)
	assert.True(t, rules[1].Enabled)

	assert.Equal(t, MatchRegex, rules[2].MatchType)
	assert.False(t, rules[2].Enabled)
	assert.True(t, rules[2].CreatedAt.After(rules[1].CreatedAt))
}

func TestLoadRulesCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bad category",
			input: "pattern,match_type,category_id\ncoffee,CONTAINS,seven\n",
			want:  "line 2: invalid category_id",
		},
		{
			name:  "bad match type",
			input: "pattern,match_type,category_id\ncoffee,FUZZY,7\n",
			want:  "line 2: unknown match type",
		},
		{
			name:  "bad priority",
			input: "pattern,match_type,category_id,priority\ncoffee,CONTAINS,7,high\n",
			want:  "line 2: invalid priority",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRulesCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRulesYAML(t *testing.T) {
	input := `rules:
  - pattern: coffee
    match_type: CONTAINS
    category_id: 7
    priority: 10
    created_at: 2026-01-01T00:00:00Z
  - pattern: uber
    match_type: starts_with
    category_id: 3
  - pattern: "^amzn"
    match_type: REGEX
    category_id: 4
    enabled: false
`
	rules, err := LoadRulesYAML(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rules, 3)

	assert.Equal(t, int64(7), rules[0].CategoryID)
	assert.Equal(t, 10, rules[0].Priority)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), rules[0].CreatedAt)

	assert.Equal(t, MatchStartsWith, rules[1].MatchType)
	assert.True(t, rules[1].Enabled)

	assert.Equal(t, "^amzn", rules[2].Pattern)
	assert.False(t, rules[2].Enabled)
	assert.True(t, rules[2].CreatedAt.After(rules[1].CreatedAt))
}

func TestLoadRulesYAML_Errors(t *testing.T) {
	_, err := LoadRulesYAML(strings.NewReader("rules:\n  - pattern: x\n    match_type: FUZZY\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule 1: unknown match type")

	_, err = LoadRulesYAML(strings.NewReader("rules: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse rule file")

	rules, err := LoadRulesYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestLoadRules_PicksFormatByExtension(t *testing.T) {
	rules, err := LoadRules("seed.yml", strings.NewReader("rules:\n  - pattern: rent\n    category_id: 2\n"))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, MatchContains, rules[0].MatchType)

	rules, err = LoadRules("seed.csv", strings.NewReader("pattern,match_type,category_id\nrent,CONTAINS,2\n"))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, int64(2), rules[0].CategoryID)
}

package categorization

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// LoadRules reads a rule seed file, choosing YAML or CSV by the file extension.
func LoadRules(name string, r io.Reader) ([]MerchantRule, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return LoadRulesYAML(r)
	default:
		return LoadRulesCSV(r)
	}
}

// ruleRecord is one line of a rule seed file:
//
//	pattern,match_type,category_id,priority,enabled,created_at
//	coffee,CONTAINS,7,10,true,2026-01-01T00:00:00Z
type ruleRecord struct {
	Pattern    string `csv:"pattern"`
	MatchType  string `csv:"match_type"`
	CategoryID string `csv:"category_id"`
	Priority   string `csv:"priority"`
	Enabled    string `csv:"enabled"`
	CreatedAt  string `csv:"created_at"`
}

// LoadRulesCSV reads merchant rules from a CSV seed file. Blank enabled defaults to true,
// blank priority to 0. Rules without created_at are stamped in file order so later lines
// win ties.
func LoadRulesCSV(r io.Reader) ([]MerchantRule, error) {
	var records []ruleRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	base := time.Unix(0, 0).UTC()
	rules := make([]MerchantRule, 0, len(records))
	for i, rec := range records {
		line := i + 2 // 1-indexed, after header

		matchType, err := ParseMatchType(rec.MatchType)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		categoryID, err := strconv.ParseInt(strings.TrimSpace(rec.CategoryID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid category_id %q", line, rec.CategoryID)
		}

		priority := 0
		if s := strings.TrimSpace(rec.Priority); s != "" {
			if priority, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("line %d: invalid priority %q", line, rec.Priority)
			}
		}

		enabled := true
		if s := strings.TrimSpace(rec.Enabled); s != "" {
			if enabled, err = strconv.ParseBool(s); err != nil {
				return nil, fmt.Errorf("line %d: invalid enabled flag %q", line, rec.Enabled)
			}
		}

		createdAt := base.Add(time.Duration(i) * time.Second)
		if s := strings.TrimSpace(rec.CreatedAt); s != "" {
			if createdAt, err = time.Parse(time.RFC3339, s); err != nil {
				return nil, fmt.Errorf("line %d: invalid created_at %q", line, rec.CreatedAt)
			}
		}

		rules = append(rules, MerchantRule{
			ID:         uuid.New(),
			Pattern:    rec.Pattern,
			MatchType:  matchType,
			CategoryID: categoryID,
			Priority:   priority,
			Enabled:    enabled,
			CreatedAt:  createdAt,
		})
	}
	return rules, nil
}

// ruleFile is the YAML seed layout:
//
//	rules:
//	  - pattern: starbucks
//	    match_type: CONTAINS
//	    category_id: 7
//	    priority: 10
type ruleFile struct {
	Rules []struct {
		Pattern    string     `yaml:"pattern"`
		MatchType  string     `yaml:"match_type"`
		CategoryID int64      `yaml:"category_id"`
		Priority   int        `yaml:"priority"`
		Enabled    *bool      `yaml:"enabled"`
		CreatedAt  *time.Time `yaml:"created_at"`
	} `yaml:"rules"`
}

// LoadRulesYAML reads merchant rules from a YAML seed file with the same defaults as
// LoadRulesCSV.
func LoadRulesYAML(r io.Reader) ([]MerchantRule, error) {
	var file ruleFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	base := time.Unix(0, 0).UTC()
	rules := make([]MerchantRule, 0, len(file.Rules))
	for i, rec := range file.Rules {
		matchType, err := ParseMatchType(rec.MatchType)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}

		rule := MerchantRule{
			ID:         uuid.New(),
			Pattern:    rec.Pattern,
			MatchType:  matchType,
			CategoryID: rec.CategoryID,
			Priority:   rec.Priority,
			Enabled:    true,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		if rec.Enabled != nil {
			rule.Enabled = *rec.Enabled
		}
		if rec.CreatedAt != nil {
			rule.CreatedAt = rec.CreatedAt.UTC()
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

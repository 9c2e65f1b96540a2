// Package normalizer turns raw rows and tagged candidates into signed, dated transactions.
// Row-level defects never abort a batch; each one becomes a single warning naming the
// 1-based row number.
package normalizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

// Result is the output of a normalization pass.
type Result struct {
	Transactions []model.NormalizedTransaction
	Warnings     []string
	ZeroDropped  int // rows whose net amount was zero
}

func (r *Result) warn(line int, format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf("row %d: %s", line+1, fmt.Sprintf(format, args...)))
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanDescription trims and collapses internal whitespace.
func CleanDescription(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// NormalizeRows applies a mapping to row-oriented data. rows[0] through rows[headerIndex]
// are skipped; pass -1 for headerless data. Warnings cite each row's source line.
func NormalizeRows(rows []model.RawRow, m model.ColumnMapping, headerIndex int) Result {
	var res Result
	if !m.Valid() {
		res.Warnings = append(res.Warnings, "column mapping is incomplete: a date column and an amount, debit or credit column are required")
		return res
	}

	for i, row := range rows {
		if i <= headerIndex {
			continue
		}

		if !hasColumns(row, m) {
			res.warn(row.Line, "expected at least %d columns, found %d", m.MaxColumn()+1, len(row.Cells))
			continue
		}

		dateText := row.Cell(m.DateColumn)
		if dateText == "" {
			res.warn(row.Line, "missing date")
			continue
		}
		date, ok := ParseDate(dateText, m.DateFormatOverride)
		if !ok {
			res.warn(row.Line, "unparseable date %q", dateText)
			continue
		}

		amount, ok := resolveRowAmount(&res, row, m)
		if !ok {
			continue
		}
		if amount == 0 {
			res.ZeroDropped++
			continue
		}

		var desc string
		if m.DescriptionColumn != nil {
			desc = CleanDescription(row.Cell(*m.DescriptionColumn))
		}

		res.Transactions = append(res.Transactions, model.NormalizedTransaction{
			Date:              date,
			Description:       desc,
			SignedAmountMinor: amount,
			SourceLine:        row.Line,
		})
	}
	return res
}

// hasColumns reports whether the row reaches the date column and at least one amount source.
func hasColumns(row model.RawRow, m model.ColumnMapping) bool {
	n := len(row.Cells)
	if m.DateColumn >= n {
		return false
	}
	for _, c := range []*int{m.AmountColumn, m.DebitColumn, m.CreditColumn} {
		if c != nil && *c < n {
			return true
		}
	}
	return false
}

// resolveRowAmount picks credit, then debit, then the single amount column. A false
// return means the row was skipped and already warned about.
func resolveRowAmount(res *Result, row model.RawRow, m model.ColumnMapping) (int64, bool) {
	if m.DebitColumn != nil || m.CreditColumn != nil {
		var bad []string
		if m.CreditColumn != nil {
			text := row.Cell(*m.CreditColumn)
			if v, ok := ParseAmount(text, m.DecimalSeparator, m.Inferred); ok && v != 0 {
				return abs(v), true
			} else if !ok && text != "" {
				bad = append(bad, text)
			}
		}
		if m.DebitColumn != nil {
			text := row.Cell(*m.DebitColumn)
			if v, ok := ParseAmount(text, m.DecimalSeparator, m.Inferred); ok && v != 0 {
				return -abs(v), true
			} else if !ok && text != "" {
				bad = append(bad, text)
			}
		}
		if m.AmountColumn == nil {
			if len(bad) > 0 {
				res.warn(row.Line, "unparseable amount %q", strings.Join(bad, " / "))
				return 0, false
			}
			// Blank or zero on both sides: not a transaction.
			return 0, true
		}
	}

	text := row.Cell(*m.AmountColumn)
	if text == "" {
		res.warn(row.Line, "missing amount")
		return 0, false
	}
	v, ok := ParseAmount(text, m.DecimalSeparator, m.Inferred)
	if !ok {
		res.warn(row.Line, "unparseable amount %q", text)
		return 0, false
	}
	if v >= 0 && m.TypeColumn != nil {
		v = ApplyTypeHint(v, row.Cell(*m.TypeColumn))
	}
	return v, true
}

// NormalizeCandidates converts tagged OFX, QIF or PDF records. Their amounts carry no
// declared decimal mark, so separators are resolved per value. A bank transaction ID
// seen twice in one statement is imported both times and warned about.
func NormalizeCandidates(candidates []model.Candidate) Result {
	var res Result
	seenFitID := make(map[string]int)
	for _, c := range candidates {
		if c.FitID != "" {
			if first, ok := seenFitID[c.FitID]; ok {
				res.warn(c.Line, "transaction ID %q repeats row %d", c.FitID, first+1)
			} else {
				seenFitID[c.FitID] = c.Line
			}
		}

		date, ok := ParseDate(c.DateText, "")
		if !ok {
			res.warn(c.Line, "unparseable date %q", c.DateText)
			continue
		}

		if strings.TrimSpace(c.AmountText) == "" {
			res.warn(c.Line, "missing amount")
			continue
		}
		amount, ok := ParseAmount(c.AmountText, model.DecimalDot, true)
		if !ok {
			res.warn(c.Line, "unparseable amount %q", c.AmountText)
			continue
		}
		if amount >= 0 && c.Kind != "" {
			amount = ApplyTypeHint(amount, c.Kind)
		}
		if amount == 0 {
			res.ZeroDropped++
			continue
		}

		res.Transactions = append(res.Transactions, model.NormalizedTransaction{
			Date:              date,
			Description:       CleanDescription(c.Description),
			SignedAmountMinor: amount,
			SourceLine:        c.Line,
		})
	}
	return res
}

var (
	outflowPrefixes = []string{"debit", "débit", "withdraw", "expense"}
	inflowPrefixes  = []string{"credit", "crédit", "deposit", "income"}
)

// ApplyTypeHint forces the sign of a non-negative amount from a type cell such as
// "Debit", "Withdrawal", "Money out" or "Deposit". Unknown types leave it unchanged.
func ApplyTypeHint(amount int64, typeText string) int64 {
	words := strings.FieldsFunc(strings.ToLower(typeText), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if w == "out" || hasAnyPrefix(w, outflowPrefixes) {
			return -abs(amount)
		}
	}
	for _, w := range words {
		if w == "in" || hasAnyPrefix(w, inflowPrefixes) {
			return abs(amount)
		}
	}
	return amount
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

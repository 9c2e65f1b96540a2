// Package model holds the data shapes shared by the import pipeline stages.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Format identifies the container format of an uploaded statement.
type Format string

const (
	FormatDelimited   Format = "delimited"
	FormatSpreadsheet Format = "spreadsheet"
	FormatOFX         Format = "ofx"
	FormatQIF         Format = "qif"
	FormatPDF         Format = "pdf"
)

// IsRowOriented reports whether the format yields generic rows that need schema inference.
func (f Format) IsRowOriented() bool {
	return f == FormatDelimited || f == FormatSpreadsheet
}

// RawRow is a generic row produced by the delimited and spreadsheet extractors.
type RawRow struct {
	Cells []string
	Line  int // 0-based line or sheet row in the source
}

// Cell returns the trimmed cell at idx, or "" when the row is too short.
func (r RawRow) Cell(idx int) string {
	if idx < 0 || idx >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[idx])
}

// Candidate is an already-tagged record from OFX, QIF or PDF text.
type Candidate struct {
	DateText    string
	AmountText  string
	Description string
	Kind        string // optional type hint (OFX TRNTYPE)
	FitID       string // bank transaction ID, OFX only
	Line        int
}

// Extraction is the output of an extractor. Exactly one of Rows or Candidates is used,
// selected by Format.IsRowOriented.
type Extraction struct {
	Format      Format
	Rows        []RawRow
	Candidates  []Candidate
	Currency    string
	Warnings    []string
	Scanned     bool // PDF with no extractable text layer
	ReadFailure bool
}

// DecimalSeparator is the decimal mark used by amount cells.
type DecimalSeparator int

const (
	DecimalDot DecimalSeparator = iota
	DecimalComma
)

func (d DecimalSeparator) String() string {
	if d == DecimalComma {
		return "COMMA"
	}
	return "DOT"
}

// MarshalText stores the separator by name.
func (d DecimalSeparator) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts DOT or COMMA, case-insensitively.
func (d *DecimalSeparator) UnmarshalText(b []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(b))) {
	case "DOT", ".", "":
		*d = DecimalDot
	case "COMMA", ",":
		*d = DecimalComma
	default:
		return fmt.Errorf("unknown decimal separator %q", b)
	}
	return nil
}

// ColumnMapping tells the normalizer where each field lives in a RawRow.
type ColumnMapping struct {
	DateColumn         int              `json:"date_column"`
	DescriptionColumn  *int             `json:"description_column,omitempty"`
	TypeColumn         *int             `json:"type_column,omitempty"`
	AmountColumn       *int             `json:"amount_column,omitempty"`
	DebitColumn        *int             `json:"debit_column,omitempty"`
	CreditColumn       *int             `json:"credit_column,omitempty"`
	DateFormatOverride string           `json:"date_format_override,omitempty"`
	DecimalSeparator   DecimalSeparator `json:"decimal_separator"`
	// Inferred marks a heuristically inferred mapping; amount parsing then resolves
	// separator ambiguity per value instead of trusting DecimalSeparator.
	Inferred bool `json:"inferred,omitempty"`
}

// Valid reports whether the mapping names a date column and at least one amount source.
func (m ColumnMapping) Valid() bool {
	return m.DateColumn >= 0 && (m.AmountColumn != nil || m.DebitColumn != nil || m.CreditColumn != nil)
}

// MaxColumn returns the largest column index referenced by the mapping.
func (m ColumnMapping) MaxColumn() int {
	max := m.DateColumn
	for _, c := range []*int{m.DescriptionColumn, m.TypeColumn, m.AmountColumn, m.DebitColumn, m.CreditColumn} {
		if c != nil && *c > max {
			max = *c
		}
	}
	return max
}

// Col is a convenience for building optional column indices.
func Col(i int) *int {
	return &i
}

// NormalizedTransaction is a parsed, signed statement line. Negative amounts are outflows.
type NormalizedTransaction struct {
	Date              time.Time
	Description       string
	SignedAmountMinor int64
	SourceLine        int
}

// Kind returns "expense" for outflows and "income" for inflows.
func (t NormalizedTransaction) Kind() string {
	return KindFor(t.SignedAmountMinor)
}

// KindFor classifies a signed minor-unit amount.
func KindFor(signedMinor int64) string {
	if signedMinor < 0 {
		return KindExpense
	}
	return KindIncome
}

const (
	KindExpense = "expense"
	KindIncome  = "income"
)

// CategorizedTransaction is a normalized transaction with its resolved category.
type CategorizedTransaction struct {
	NormalizedTransaction
	CategoryID int64
	RuleID     *uuid.UUID // matched rule, nil when the default category was used
	Currency   string     // ISO 4217 code named by the statement; empty uses the ledger default
}

// Diagnostics describes anything the pipeline could not do automatically.
type Diagnostics struct {
	Format           Format
	Warnings         []string
	NeedsMapping     bool
	Columns          []string
	SampleRows       [][]string
	BankProfileKey   string
	SuggestedMapping *ColumnMapping
	ScannedDocument  bool
	Currency         string
}

// Warn appends a warning.
func (d *Diagnostics) Warn(msg string) {
	d.Warnings = append(d.Warnings, msg)
}

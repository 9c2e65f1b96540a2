// Package sniffer classifies uploaded statements and infers their column layout.
// It scores header rows against known column aliases, proposes a column mapping and
// derives a profile key so a confirmed mapping can be recognised on the next upload.
package sniffer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

// HeaderScanRows is how many leading rows are considered as header candidates.
const HeaderScanRows = 20

// MinHeaderScore is the number of distinct roles a row needs to be accepted as a header.
const MinHeaderScore = 2

// Role is a semantic column role.
type Role int

const (
	RoleDate Role = iota
	RoleDescription
	RoleType
	RoleAmount
	RoleDebit
	RoleCredit
	RoleCategory
)

func (r Role) String() string {
	switch r {
	case RoleDate:
		return "date"
	case RoleDescription:
		return "description"
	case RoleType:
		return "type"
	case RoleAmount:
		return "amount"
	case RoleDebit:
		return "debit"
	case RoleCredit:
		return "credit"
	case RoleCategory:
		return "category"
	}
	return "unknown"
}

// Column aliases per role (multi-language). Order matters: the first alias registered
// for a role wins when several columns could fill it.
var roleAliases = []struct {
	role    Role
	aliases []string
}{
	{RoleDate, []string{
		"date", "transaction date", "posting date", "posted date", "booking date", "value date",
		"data", "data mov", "data mov.", "data movimento", "data valor", "fecha", "datum",
	}},
	{RoleDescription, []string{
		"description", "details", "narration", "merchant", "memo", "payee",
		"transaction description", "descrição", "descricao", "descripción", "descripcion",
		"name", "nome", "beschreibung",
	}},
	{RoleType, []string{
		"type", "transaction type", "kind", "dr/cr", "tipo", "typ",
	}},
	{RoleAmount, []string{
		"amount", "value", "transaction amount", "sum", "valor", "montante", "importe", "montant", "betrag",
	}},
	{RoleDebit, []string{
		"debit", "debits", "withdrawal", "withdrawals", "money out", "paid out", "outflow",
		"débito", "debito", "cargo",
	}},
	{RoleCredit, []string{
		"credit", "credits", "deposit", "deposits", "money in", "paid in", "inflow",
		"crédito", "credito", "abono",
	}},
	{RoleCategory, []string{
		"category", "categoria", "categoría",
	}},
}

var (
	aliasRole   = make(map[string]Role)
	aliasOrder  = make(map[string]int)
	spaceRegexp = regexp.MustCompile(`\s+`)
)

func init() {
	n := 0
	for _, entry := range roleAliases {
		for _, alias := range entry.aliases {
			key := NormalizeLabel(alias)
			if _, exists := aliasRole[key]; exists {
				continue
			}
			aliasRole[key] = entry.role
			aliasOrder[key] = n
			n++
		}
	}
}

// NormalizeLabel canonicalises a header cell for alias lookup.
func NormalizeLabel(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return spaceRegexp.ReplaceAllString(s, " ")
}

// RoleOf returns the role a header label maps to, if any.
func RoleOf(label string) (Role, bool) {
	r, ok := aliasRole[NormalizeLabel(label)]
	return r, ok
}

// Schema is the result of header inference over the first rows of an extraction.
type Schema struct {
	HeaderIndex int // -1 when no header was accepted
	Score       int
	Columns     []string
	Mapping     *model.ColumnMapping // nil when no valid mapping could be inferred
}

// HasHeader reports whether a header row was accepted.
func (s Schema) HasHeader() bool {
	return s.HeaderIndex >= 0
}

// ScoreRow counts the distinct roles recognised among a row's cells.
func ScoreRow(cells []string) int {
	seen := make(map[Role]bool)
	for _, cell := range cells {
		if role, ok := RoleOf(cell); ok {
			seen[role] = true
		}
	}
	return len(seen)
}

// InferSchema picks the best header among the first HeaderScanRows rows and infers a mapping.
func InferSchema(rows []model.RawRow) Schema {
	limit := len(rows)
	if limit > HeaderScanRows {
		limit = HeaderScanRows
	}

	best, bestScore := -1, 0
	for i := 0; i < limit; i++ {
		score := ScoreRow(rows[i].Cells)
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 || bestScore < MinHeaderScore {
		return Schema{
			HeaderIndex: -1,
			Score:       bestScore,
			Columns:     SyntheticColumns(rows, limit),
		}
	}

	columns := make([]string, len(rows[best].Cells))
	for i, c := range rows[best].Cells {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(c, "\uFEFF"))
	}

	return Schema{
		HeaderIndex: best,
		Score:       bestScore,
		Columns:     columns,
		Mapping:     InferMapping(columns),
	}
}

// SyntheticColumns builds "Column 1".."Column N" labels from the widest of the first rows.
func SyntheticColumns(rows []model.RawRow, limit int) []string {
	if limit > len(rows) {
		limit = len(rows)
	}
	width := 0
	for i := 0; i < limit; i++ {
		if len(rows[i].Cells) > width {
			width = len(rows[i].Cells)
		}
	}
	cols := make([]string, width)
	for i := range cols {
		cols[i] = fmt.Sprintf("Column %d", i+1)
	}
	return cols
}

// InferMapping resolves each role to the first column whose label matches one of its
// aliases. It returns nil when the result would not be a valid mapping.
func InferMapping(headers []string) *model.ColumnMapping {
	type hit struct {
		col   int
		order int
	}
	found := make(map[Role]hit)

	for i, h := range headers {
		key := NormalizeLabel(h)
		role, ok := aliasRole[key]
		if !ok {
			continue
		}
		prev, exists := found[role]
		if !exists || aliasOrder[key] < prev.order {
			found[role] = hit{col: i, order: aliasOrder[key]}
		}
	}

	date, ok := found[RoleDate]
	if !ok {
		return nil
	}

	m := &model.ColumnMapping{
		DateColumn: date.col,
		Inferred:   true,
	}
	if h, ok := found[RoleDescription]; ok {
		m.DescriptionColumn = model.Col(h.col)
	}
	if h, ok := found[RoleType]; ok {
		m.TypeColumn = model.Col(h.col)
	}
	if h, ok := found[RoleAmount]; ok {
		m.AmountColumn = model.Col(h.col)
	}
	if h, ok := found[RoleDebit]; ok {
		m.DebitColumn = model.Col(h.col)
	}
	if h, ok := found[RoleCredit]; ok {
		m.CreditColumn = model.Col(h.col)
	}

	if !m.Valid() {
		return nil
	}
	return m
}

// ProfileKey hashes the format and normalised header list into a stable lookup key.
func ProfileKey(format model.Format, headers []string) string {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeLabel(h)
	}
	joined := string(format) + "|" + strings.Join(normalized, "|")
	hash := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(hash[:])
}

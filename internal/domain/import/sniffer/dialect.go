package sniffer

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

var (
	dateLikeRegexp   = regexp.MustCompile(`(?i)^(\d{4}[-/.]\d{1,2}[-/.]\d{1,2}|\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}|\d{1,2}[\s-](jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[\s-]\d{2,4})$`)
	amountLikeRegexp = regexp.MustCompile(`^[(+\-]?\s*[^\d\s]{0,3}\s*\d[\d.,\s]*\)?$`)
)

// ProbeDecimalSeparator guesses the decimal mark from amount samples.
// Both separators present: the last one is decimal. A single separator followed by one or
// two digits is decimal. Ties and empty input default to DOT.
func ProbeDecimalSeparator(samples []string) model.DecimalSeparator {
	european, us := 0, 0
	for _, s := range samples {
		switch analyzeAmountFormat(s) {
		case 1:
			european++
		case -1:
			us++
		}
	}
	if european > us {
		return model.DecimalComma
	}
	return model.DecimalDot
}

// analyzeAmountFormat returns: >0 for European, <0 for US, 0 for ambiguous
func analyzeAmountFormat(val string) int {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == ',' || r == '.' {
			return r
		}
		return -1
	}, val)
	if cleaned == "" {
		return 0
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			return 1
		}
		return -1
	case lastComma >= 0:
		if len(cleaned)-lastComma-1 <= 2 {
			return 1
		}
	case lastDot >= 0:
		if len(cleaned)-lastDot-1 <= 2 {
			return -1
		}
	}
	return 0
}

// SuggestMapping guesses a mapping from cell content when no header could be used. The
// result is only ever offered to the caller for confirmation, never applied automatically.
func SuggestMapping(rows []model.RawRow, skip int) *model.ColumnMapping {
	dateHits := make(map[int]int)
	amountHits := make(map[int]int)
	textHits := make(map[int]int)
	width := 0

	for i, row := range rows {
		if i < skip {
			continue
		}
		if len(row.Cells) > width {
			width = len(row.Cells)
		}
		for col := range row.Cells {
			cell := row.Cell(col)
			switch {
			case cell == "":
			case dateLikeRegexp.MatchString(cell):
				dateHits[col]++
			case amountLikeRegexp.MatchString(cell):
				amountHits[col]++
			default:
				textHits[col]++
			}
		}
	}

	dateCol := argmax(dateHits, width, -1)
	if dateCol < 0 {
		return nil
	}
	m := &model.ColumnMapping{DateColumn: dateCol}

	// The amount usually sits right of the description; balances trail further right,
	// so prefer the leftmost amount-like column after the date.
	for col := dateCol + 1; col < width; col++ {
		if amountHits[col] > 0 {
			m.AmountColumn = model.Col(col)
			break
		}
	}
	if m.AmountColumn == nil {
		if col := argmax(amountHits, width, dateCol); col >= 0 {
			m.AmountColumn = model.Col(col)
		}
	}
	if desc := argmax(textHits, width, dateCol); desc >= 0 {
		m.DescriptionColumn = model.Col(desc)
	}
	if m.AmountColumn != nil {
		var samples []string
		for i, row := range rows {
			if i >= skip {
				samples = append(samples, row.Cell(*m.AmountColumn))
			}
		}
		m.DecimalSeparator = ProbeDecimalSeparator(samples)
	}

	if !m.Valid() {
		return nil
	}
	return m
}

func argmax(hits map[int]int, width, exclude int) int {
	best, bestCount := -1, 0
	for col := 0; col < width; col++ {
		if col == exclude {
			continue
		}
		if hits[col] > bestCount {
			best, bestCount = col, hits[col]
		}
	}
	return best
}

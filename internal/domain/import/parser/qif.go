package parser

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

// QIFExtractor reads Quicken Interchange Format records.
type QIFExtractor struct{}

type qifRecord struct {
	date, amount, payee, memo string
	line                      int
}

// Extract implements Extractor.
func (e *QIFExtractor) Extract(ctx context.Context, data []byte) (*model.Extraction, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	text, _ := decodeText(data)
	result := &model.Extraction{Format: model.FormatQIF}

	var (
		rec     qifRecord
		started bool
		index   int
	)

	flush := func() {
		if !started {
			return
		}
		index++
		if rec.date == "" || rec.amount == "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("record %d: missing date or amount, skipped", index))
		} else {
			desc := rec.payee
			if desc == "" {
				desc = rec.memo
			}
			result.Candidates = append(result.Candidates, model.Candidate{
				DateText:    qifDate(rec.date),
				AmountText:  rec.amount,
				Description: desc,
				Line:        rec.line,
			})
			if code, ok := DetectCurrency(rec.amount); ok && result.Currency == "" {
				result.Currency = code
			}
		}
		rec = qifRecord{}
		started = false
	}

	for i, raw := range splitLines(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		if strings.HasPrefix(line, "^") {
			flush()
			continue
		}

		if !started {
			started = true
			rec.line = i
		}

		code, value := line[0], strings.TrimSpace(line[1:])
		switch code {
		case 'D':
			rec.date = value
		case 'T':
			rec.amount = value
		case 'U':
			if rec.amount == "" {
				rec.amount = value
			}
		case 'P':
			rec.payee = value
		case 'M':
			rec.memo = value
		}
	}
	// A trailing record without a closing caret is still a record.
	flush()

	return result, nil
}

// qifDate rewrites a Quicken date as ISO. Quicken writes dates month first, with either
// a plain year ("01/15/2024", "1/15/24") or the apostrophe form for 2000 and later
// ("1/15'24", "1/ 5' 4"). A first field above 12 can only be a day, so that export is
// read day first. Year-first and unrecognized values are returned unchanged.
func qifDate(raw string) string {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	apostrophe := strings.Contains(s, "'")

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.' || r == '\''
	})
	if len(parts) != 3 || len(parts[0]) > 2 {
		return raw
	}
	month, err1 := strconv.Atoi(parts[0])
	day, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return raw
	}

	if month > 12 && day <= 12 {
		month, day = day, month
	}
	switch {
	case year >= 100:
	case apostrophe || year < 70:
		year += 2000
	default:
		year += 1900
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

// DelimiterSampleLines is how many non-empty lines GuessDelimiter looks at.
const DelimiterSampleLines = 20

// candidate delimiters, in tie-break order
var delimiters = []rune{',', ';', '\t', '|'}

// DelimitedExtractor reads CSV-like text into raw rows.
type DelimitedExtractor struct {
	// Delimiter forces a field separator; zero means guess.
	Delimiter rune
}

// Extract implements Extractor.
func (e *DelimitedExtractor) Extract(ctx context.Context, data []byte) (*model.Extraction, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	text, fallback := decodeText(data)
	result := &model.Extraction{Format: model.FormatDelimited}
	if fallback {
		result.Warnings = append(result.Warnings, "file is not valid UTF-8; decoded as Windows-1252")
	}

	delim := e.Delimiter
	if delim == 0 {
		delim = GuessDelimiter(text)
	}

	reader := newCSVReader(strings.NewReader(text), delim)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Warnings = append(result.Warnings,
					rowWarning(parseErr.Line, "malformed record skipped: %v", parseErr.Err))
				continue
			}
			result.Warnings = append(result.Warnings, "read stopped early: "+err.Error())
			break
		}

		if isBlankRow(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		result.Rows = append(result.Rows, model.RawRow{Cells: record, Line: line - 1})
	}

	if currency, ok := detectRowCurrency(result.Rows); ok {
		result.Currency = currency
	}

	return result, nil
}

// GuessDelimiter picks the separator that yields the most fields over a sample of lines.
// Ties keep the earlier candidate, so comma wins an all-equal sample.
func GuessDelimiter(text string) rune {
	sample := make([]string, 0, DelimiterSampleLines)
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sample = append(sample, line)
		if len(sample) == DelimiterSampleLines {
			break
		}
	}
	if len(sample) == 0 {
		return ','
	}
	joined := strings.Join(sample, "\n")

	best, bestCount := delimiters[0], -1
	for _, d := range delimiters {
		count := 0
		reader := newCSVReader(strings.NewReader(joined), d)
		for {
			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				var parseErr *csv.ParseError
				if errors.As(err, &parseErr) {
					continue
				}
				break
			}
			count += len(record)
		}
		if count > bestCount {
			best, bestCount = d, count
		}
	}
	return best
}

func newCSVReader(r io.Reader, delim rune) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // Variable field count
	return reader
}

// detectRowCurrency looks for a currency glyph in the first rows.
func detectRowCurrency(rows []model.RawRow) (string, bool) {
	limit := len(rows)
	if limit > DelimiterSampleLines {
		limit = DelimiterSampleLines
	}
	for _, row := range rows[:limit] {
		for _, cell := range row.Cells {
			if code, ok := DetectCurrency(cell); ok {
				return code, true
			}
		}
	}
	return "", false
}

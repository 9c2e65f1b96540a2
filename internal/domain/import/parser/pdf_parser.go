package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

// ScannedWarning is reported when a PDF has no extractable text layer.
const ScannedWarning = "no text layer found; the PDF looks like a scanned image and needs OCR, which is not supported"

var (
	pdfDateRegexp = regexp.MustCompile(`(?i)\b(\d{4}-\d{2}-\d{2}|\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}|\d{1,2}[ -](?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[ -]\d{2,4})\b`)
	// Amounts need exactly two fraction digits so reference numbers are not mistaken for money.
	pdfAmountRegexp = regexp.MustCompile(`(?i)\(?[-+]?\s?(?:R\$|[$€£¥])?\s?\d{1,3}(?:[.,' ]?\d{3})*[.,]\d{2}\)?(?:\s?(?:CR|DR)\b)?`)
	spaceRun        = regexp.MustCompile(`\s+`)
)

// PDFExtractor reads the text layer of a PDF statement and scans each line for a date and an
// amount. It does not OCR image-only documents.
type PDFExtractor struct{}

// Extract implements Extractor.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (*model.Extraction, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	lines, err := pdfLines(data)
	if err != nil {
		return nil, err
	}

	result := &model.Extraction{Format: model.FormatPDF}
	if len(lines) == 0 {
		result.Scanned = true
		result.Warnings = append(result.Warnings, ScannedWarning)
		return result, nil
	}

	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c, ok := ScanLine(line); ok {
			c.Line = i
			result.Candidates = append(result.Candidates, c)
			if result.Currency == "" {
				if code, ok := DetectCurrency(c.AmountText); ok {
					result.Currency = code
				}
			}
		}
	}

	if len(result.Candidates) == 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("read %d text lines but none looked like a transaction", len(lines)))
	}

	return result, nil
}

// ScanLine pulls a date token and the last amount token out of one text line. The
// description is whatever remains.
func ScanLine(line string) (model.Candidate, bool) {
	loc := pdfDateRegexp.FindStringIndex(line)
	if loc == nil {
		return model.Candidate{}, false
	}
	date := line[loc[0]:loc[1]]
	rest := line[:loc[0]] + " " + line[loc[1]:]

	amounts := pdfAmountRegexp.FindAllStringIndex(rest, -1)
	if len(amounts) == 0 {
		return model.Candidate{}, false
	}
	last := amounts[len(amounts)-1]
	amount := strings.TrimSpace(rest[last[0]:last[1]])
	desc := rest[:last[0]] + " " + rest[last[1]:]

	var kind string
	upper := strings.ToUpper(amount)
	switch {
	case strings.HasSuffix(upper, "CR"):
		kind = "credit"
		amount = strings.TrimSpace(amount[:len(amount)-2])
	case strings.HasSuffix(upper, "DR"):
		kind = "debit"
		amount = strings.TrimSpace(amount[:len(amount)-2])
	}

	return model.Candidate{
		DateText:    date,
		AmountText:  amount,
		Description: strings.TrimSpace(spaceRun.ReplaceAllString(desc, " ")),
		Kind:        kind,
	}, true
}

// pdfLines returns the non-empty text lines of every page, grouped by row.
func pdfLines(data []byte) (lines []string, err error) {
	// The pdf library panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: pdf reader crashed: %v", ErrUnreadable, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open pdf: %v", ErrUnreadable, err)
	}

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
	}

	if len(lines) > 0 {
		return lines, nil
	}

	// Row grouping found nothing; the whole-document path sometimes still has text.
	plain, err := r.GetPlainText()
	if err != nil {
		return nil, nil
	}
	body, err := io.ReadAll(plain)
	if err != nil {
		return nil, nil
	}
	for _, line := range splitLines(string(body)) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// Package parser turns statement bytes into raw rows or tagged candidate records.
// One Extractor exists per container format and is selected once from the sniffed format.
package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

var (
	// ErrUnreadable is returned when the source cannot be opened at all.
	ErrUnreadable = errors.New("statement is unreadable")
	// ErrEmptyInput is returned for a zero-length source.
	ErrEmptyInput = errors.New("statement is empty")
)

// Extractor turns a statement into rows or candidates plus warnings.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*model.Extraction, error)
}

// ForFormat returns the extractor for a sniffed format. Unknown formats fall back to
// delimited text, matching the sniffer's default.
func ForFormat(format model.Format) Extractor {
	switch format {
	case model.FormatSpreadsheet:
		return &ExcelExtractor{}
	case model.FormatOFX:
		return &OFXExtractor{}
	case model.FormatQIF:
		return &QIFExtractor{}
	case model.FormatPDF:
		return &PDFExtractor{}
	default:
		return &DelimitedExtractor{}
	}
}

func rowWarning(line int, format string, args ...any) string {
	return fmt.Sprintf("row %d: %s", line, fmt.Sprintf(format, args...))
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

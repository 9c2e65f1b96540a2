package parser

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

// ExcelExtractor reads the first sheet of a workbook as display text.
type ExcelExtractor struct{}

// Extract implements Extractor.
func (e *ExcelExtractor) Extract(ctx context.Context, data []byte) (*model.Extraction, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadable)
	}

	// GetRows returns formatted cell values unless RawCellValue is set.
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %s: %v", ErrUnreadable, sheets[0], err)
	}

	result := &model.Extraction{Format: model.FormatSpreadsheet}
	if len(sheets) > 1 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("workbook has %d sheets; only %q was read", len(sheets), sheets[0]))
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(row) == 0 || isBlankRow(row) {
			continue
		}
		result.Rows = append(result.Rows, model.RawRow{Cells: row, Line: i})
	}

	if currency, ok := detectRowCurrency(result.Rows); ok {
		result.Currency = currency
	}

	return result, nil
}

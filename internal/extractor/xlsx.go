package extractor

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/material-processor/internal/models"
)

// extractXLSX reads the first worksheet of a workbook. Cells are read as
// stored, not as displayed, so a price formatted "0.00" keeps its full
// precision. Numeric cells become numbers; everything else stays text.
func extractXLSX(r io.Reader, name string) (*models.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", name, err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets found in workbook " + name)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s of %s: %w", sheet, name, err)
	}
	return buildTable(name, rows, func(row, col int, raw string) models.Cell {
		return xlsxCell(f, sheet, row, col, raw)
	})
}

// xlsxCell types one raw cell value. row and col are zero-based.
func xlsxCell(f *excelize.File, sheet string, row, col int, raw string) models.Cell {
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return models.Text(raw)
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return models.Text(raw)
	}
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		// Unset is how excelize and most writers store plain numbers; it
		// also covers formulas with a cached numeric result.
		if d, err := decimal.NewFromString(strings.TrimSpace(raw)); err == nil {
			return models.Number(d)
		}
	}
	return models.Text(raw)
}

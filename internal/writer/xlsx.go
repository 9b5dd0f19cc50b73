package writer

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/material-processor/internal/models"
)

// XLSXWriter writes tables as worksheets of one workbook.
type XLSXWriter struct{}

// Write serialises sheets, in order, to out.
func (w *XLSXWriter) Write(out io.Writer, sheets []*models.Table) error {
	if len(sheets) == 0 {
		return errors.New("no sheets to write")
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	// NewFile starts with one default sheet; rename it to the first table.
	first := sheetName(sheets[0], 0)
	if def := f.GetSheetName(0); def != first {
		if err := f.SetSheetName(def, first); err != nil {
			return fmt.Errorf("failed to name sheet %q: %w", first, err)
		}
	}

	for i, t := range sheets {
		name := sheetName(t, i)
		if i > 0 {
			if _, err := f.NewSheet(name); err != nil {
				return fmt.Errorf("failed to create sheet %q: %w", name, err)
			}
		}
		if err := writeSheet(f, name, t); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, t *models.Table) error {
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of sheet %q: %w", name, err)
	}

	for r, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for i, c := range row {
			cells[i] = cellValue(c)
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, axis, &cells); err != nil {
			return fmt.Errorf("failed to write row %d of sheet %q: %w", r+2, name, err)
		}
	}
	return nil
}

// cellValue maps a cell to the value excelize stores: numbers as numbers,
// missing as a blank cell.
func cellValue(c models.Cell) interface{} {
	if d, ok := c.Decimal(); ok {
		return d.InexactFloat64()
	}
	if c.IsMissing() {
		return nil
	}
	return c.String()
}

func sheetName(t *models.Table, i int) string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("Sheet%d", i+1)
}

// Package extractor loads the first sheet of an uploaded spreadsheet into a
// models.Table. The first non-empty row is the header; empty cells become
// missing values.
package extractor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/material-processor/internal/models"
)

// ExtractTable reads a spreadsheet file from disk.
func ExtractTable(filePath string) (*models.Table, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	return ExtractTableFrom(f, filepath.Base(filePath))
}

// ExtractTableFrom reads a spreadsheet from r. name selects the format by
// extension; when the extension is unknown the workbook reader is tried
// first and CSV is the fallback.
func ExtractTableFrom(r io.Reader, name string) (*models.Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return extractXLSX(r, name)
	case ".csv", ".txt":
		return extractCSV(r, name)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	t, xlsxErr := extractXLSX(bytes.NewReader(data), name)
	if xlsxErr == nil {
		return t, nil
	}
	t, csvErr := extractCSV(bytes.NewReader(data), name)
	if csvErr == nil {
		return t, nil
	}
	return nil, fmt.Errorf("%s is neither a readable workbook (%v) nor CSV (%v)", name, xlsxErr, csvErr)
}

// cellFunc turns the raw value at zero-based (row, col) of the source grid
// into a cell. It is never called for empty values.
type cellFunc func(row, col int, raw string) models.Cell

func textCell(_, _ int, raw string) models.Cell { return models.Text(raw) }

// buildTable turns raw string rows into a table. Leading empty rows are
// skipped; short rows are padded with missing cells.
func buildTable(name string, rows [][]string, cell cellFunc) (*models.Table, error) {
	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, fmt.Errorf("%s has no header row", name)
	}

	header := trimTrailingBlank(rows[start])
	t := models.NewTable(name, header)
	for r := start + 1; r < len(rows); r++ {
		raw := rows[r]
		cells := make([]models.Cell, len(header))
		for i := 0; i < len(header) && i < len(raw); i++ {
			if raw[i] == "" {
				cells[i] = models.Missing()
			} else {
				cells[i] = cell(r, i, raw[i])
			}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// trimTrailingBlank drops empty header cells at the end of the row, which
// spreadsheet editors leave behind after a column is cleared.
func trimTrailingBlank(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}

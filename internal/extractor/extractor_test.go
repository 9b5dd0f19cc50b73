package extractor

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves rows to the first sheet of a new workbook, plus a
// second sheet that must be ignored.
func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", axis, &r))
	}
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Other", "A1", "ignored"))
	require.NoError(t, f.SaveAs(path))
}

func TestExtractTable_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.xlsx")
	writeWorkbook(t, path, [][]interface{}{
		{},
		{"original_code", "new_code", "qty", ""},
		{"A1", nil, 10},
		{"B2", "OLD", 2.5, "extra"},
	})

	tbl, err := ExtractTable(path)
	require.NoError(t, err)

	assert.Equal(t, "bom.xlsx", tbl.Name)
	assert.Equal(t, []string{"original_code", "new_code", "qty"}, tbl.Header)
	require.Equal(t, 2, tbl.Len())

	assert.Equal(t, "A1", tbl.Rows[0][0].String())
	assert.True(t, tbl.Rows[0][1].IsMissing())
	assert.Equal(t, "10", tbl.Rows[0][2].String())
	assert.Equal(t, "2.5", tbl.Rows[1][2].String())
	assert.Len(t, tbl.Rows[1], 3, "cells beyond the header are dropped")
}

func TestExtractTable_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock.csv")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("物料代码,基本计量单位数量\nM1,\"1,200\"\nM2\n")...)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	tbl, err := ExtractTable(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"物料代码", "基本计量单位数量"}, tbl.Header)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "1,200", tbl.Rows[0][1].String())
	assert.True(t, tbl.Rows[1][1].IsMissing(), "short rows are padded")
}

func TestExtractTableFrom_UnknownExtensionFallsBack(t *testing.T) {
	tbl, err := ExtractTableFrom(strings.NewReader("code,new_system_code\nA1,X9\n"), "upload")
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "new_system_code"}, tbl.Header)

	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeWorkbook(t, path, [][]interface{}{{"code"}, {"A1"}})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	tbl, err = ExtractTableFrom(bytes.NewReader(data), "blob.bin")
	require.NoError(t, err)
	assert.Equal(t, []string{"code"}, tbl.Header)
	assert.Equal(t, 1, tbl.Len())
}

func TestExtractTable_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ExtractTable(filepath.Join(dir, "missing.xlsx"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("\n,,\n"), 0o644))
	_, err = ExtractTable(empty)
	assert.ErrorContains(t, err, "no header row")

	notXLSX := filepath.Join(dir, "fake.xlsx")
	require.NoError(t, os.WriteFile(notXLSX, []byte("plain text"), 0o644))
	_, err = ExtractTable(notXLSX)
	assert.Error(t, err)
}

func TestExtractTable_XLSXStoredValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"code", "unit_price", "required_qty", "note"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{1001, 2.456, 1234.5, "12"}))
	twoDecimals, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	require.NoError(t, err)
	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "B2", "B2", twoDecimals))
	require.NoError(t, f.SetCellStyle("Sheet1", "C2", "C2", thousands))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := ExtractTable(path)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	row := tbl.Rows[0]

	tests := []struct {
		column   string
		want     string
		isNumber bool
	}{
		{"code", "1001", true},
		{"unit_price", "2.456", true},
		{"required_qty", "1234.5", true},
		{"note", "12", false},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			c := row[tbl.ColumnIndex(tt.column)]
			assert.Equal(t, tt.want, c.String())
			assert.Equal(t, tt.isNumber, c.IsNumber())
		})
	}
}

package writer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/insightdelivered/material-processor/internal/models"
)

// CSVWriter writes a single table in CSV format.
type CSVWriter struct {
	// IncludeBOM prefixes a UTF-8 byte order mark so spreadsheet programs
	// detect non-ASCII headers correctly.
	IncludeBOM bool
}

// Write writes the table in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, t *models.Table) error {
	if w.IncludeBOM {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write CSV byte order mark: %w", err)
		}
	}

	writer := csv.NewWriter(out)

	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = row[i].String()
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

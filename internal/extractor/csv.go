package extractor

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/insightdelivered/material-processor/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractCSV reads a comma-separated file. A UTF-8 byte order mark, as
// written by spreadsheet "Save as CSV", is skipped.
func extractCSV(r io.Reader, name string) (*models.Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV %s: %w", name, err)
	}
	return buildTable(name, records, textCell)
}

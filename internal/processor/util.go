package processor

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/material-processor/internal/models"
)

// parseNumber converts a cell like "1,234.5" to a number cell. Thousands
// separators and surrounding whitespace are removed first; anything that is
// still not a number becomes missing.
func parseNumber(c models.Cell) models.Cell {
	if c.IsNumber() || c.IsMissing() {
		return c
	}
	s := strings.TrimSpace(c.String())
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "\u00A0", "") // non-breaking space
	if s == "" {
		return models.Missing()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return models.Missing()
	}
	return models.Number(d)
}

// lookup resolves a primary key to a reference value.
type lookup interface {
	Find(key models.Cell) (models.Cell, bool)
}

// indexer builds a lookup over a reference table.
type indexer func(ref *models.Table, keyCol, valueCol string) lookup

// keyIndex maps each reference key to the value on its first row.
type keyIndex struct {
	values     map[string]models.Cell
	duplicates int
}

func newKeyIndex(ref *models.Table, keyCol, valueCol string) lookup {
	k := ref.ColumnIndex(keyCol)
	v := ref.ColumnIndex(valueCol)
	idx := &keyIndex{values: make(map[string]models.Cell, len(ref.Rows))}
	for _, row := range ref.Rows {
		key, ok := row[k].Key()
		if !ok {
			continue
		}
		if _, seen := idx.values[key]; seen {
			idx.duplicates++
			continue
		}
		idx.values[key] = row[v]
	}
	if idx.duplicates > 0 {
		log.Debug().
			Str("table", ref.Name).
			Str("key_column", keyCol).
			Int("duplicates", idx.duplicates).
			Msg("Duplicate reference keys; first occurrence wins")
	}
	return idx
}

func (idx *keyIndex) Find(key models.Cell) (models.Cell, bool) {
	k, ok := key.Key()
	if !ok {
		return models.Cell{}, false
	}
	v, ok := idx.values[k]
	return v, ok
}

// joinSpec describes a keyed copy of one reference column into the primary.
type joinSpec struct {
	key      string // primary column holding the lookup key
	target   string // primary column overwritten with the result
	fallback models.Cell
}

// join returns a copy of primary with spec.target replaced on every row and
// the number of rows that matched.
func join(primary *models.Table, idx lookup, spec joinSpec) (*models.Table, int) {
	out := primary.Clone()
	k := out.ColumnIndex(spec.key)
	tgt := out.ColumnIndex(spec.target)
	matched := 0
	for _, row := range out.Rows {
		if v, ok := idx.Find(row[k]); ok {
			row[tgt] = v
			matched++
		} else {
			row[tgt] = spec.fallback
		}
	}
	return out, matched
}

// DescribeColumns renders "1: name" lines for diagnostics.
func DescribeColumns(t *models.Table) []string {
	lines := make([]string, len(t.Header))
	for i, h := range t.Header {
		lines[i] = strconv.Itoa(i+1) + ": " + h
	}
	return lines
}

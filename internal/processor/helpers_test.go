package processor

import (
	"github.com/insightdelivered/material-processor/internal/models"
)

// table builds a text table; "" cells are missing, as a spreadsheet reader
// would produce them.
func table(name string, header []string, rows ...[]string) *models.Table {
	t := models.NewTable(name, header)
	for _, r := range rows {
		cells := make([]models.Cell, len(r))
		for i, v := range r {
			if v == "" {
				cells[i] = models.Missing()
			} else {
				cells[i] = models.Text(v)
			}
		}
		t.AppendRow(cells...)
	}
	return t
}

// cells returns a named column.
func cells(t *models.Table, name string) []models.Cell {
	idx := t.ColumnIndex(name)
	out := make([]models.Cell, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out
}

// column returns the string form of a named column.
func column(t *models.Table, name string) []string {
	col := cells(t, name)
	out := make([]string, len(col))
	for i, c := range col {
		out[i] = c.String()
	}
	return out
}

// spyIndexer records how often lookups are built and consulted.
type spyIndexer struct {
	builds int
	finds  int
}

func (s *spyIndexer) build(ref *models.Table, keyCol, valueCol string) lookup {
	s.builds++
	return &spyLookup{spy: s, inner: newKeyIndex(ref, keyCol, valueCol)}
}

type spyLookup struct {
	spy   *spyIndexer
	inner lookup
}

func (l *spyLookup) Find(key models.Cell) (models.Cell, bool) {
	l.spy.finds++
	return l.inner.Find(key)
}

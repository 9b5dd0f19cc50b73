package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

type cellKind uint8

const (
	cellMissing cellKind = iota
	cellText
	cellNumber
)

// Cell is a single spreadsheet value: text, a number, or missing.
type Cell struct {
	kind cellKind
	text string
	num  decimal.Decimal
}

// Text returns a text cell. An empty string is still text, not missing.
func Text(s string) Cell {
	return Cell{kind: cellText, text: s}
}

// Number returns a numeric cell.
func Number(d decimal.Decimal) Cell {
	return Cell{kind: cellNumber, num: d}
}

// Missing returns an empty cell.
func Missing() Cell {
	return Cell{}
}

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.kind == cellMissing }

// IsNumber reports whether the cell holds a parsed number.
func (c Cell) IsNumber() bool { return c.kind == cellNumber }

// Decimal returns the numeric value of a number cell.
func (c Cell) Decimal() (decimal.Decimal, bool) {
	if c.kind != cellNumber {
		return decimal.Zero, false
	}
	return c.num, true
}

// String renders the cell as it would appear in a text export.
func (c Cell) String() string {
	switch c.kind {
	case cellText:
		return c.text
	case cellNumber:
		return c.num.String()
	default:
		return ""
	}
}

// Key returns the exact-match lookup key for the cell. Missing and empty
// cells have no key and never match anything.
func (c Cell) Key() (string, bool) {
	s := c.String()
	if c.kind == cellMissing || s == "" {
		return "", false
	}
	return s, true
}

// Table is an in-memory sheet: an ordered header and rows aligned to it.
type Table struct {
	Name   string
	Header []string
	Rows   [][]Cell
}

// NewTable creates an empty table with a copy of the given header.
func NewTable(name string, header []string) *Table {
	return &Table{Name: name, Header: append([]string(nil), header...)}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// AppendRow adds a row, padding or truncating it to the header width.
func (t *Table) AppendRow(cells ...Cell) {
	row := make([]Cell, len(t.Header))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// ColumnIndex returns the position of the first column whose name matches,
// or -1. Names are compared after trimming and NFC normalisation so headers
// typed on different systems still resolve.
func (t *Table) ColumnIndex(name string) int {
	want := normalizeHeader(name)
	for i, h := range t.Header {
		if normalizeHeader(h) == want {
			return i
		}
	}
	return -1
}

// MissingColumns returns the names that do not resolve to a column, in the
// order given.
func (t *Table) MissingColumns(names ...string) []string {
	var missing []string
	for _, n := range names {
		if t.ColumnIndex(n) < 0 {
			missing = append(missing, n)
		}
	}
	return missing
}

// Clone returns a deep copy; rows are normalised to the header width.
func (t *Table) Clone() *Table {
	out := NewTable(t.Name, t.Header)
	out.Rows = make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]Cell, len(t.Header))
		copy(r, row)
		out.Rows[i] = r
	}
	return out
}

func normalizeHeader(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

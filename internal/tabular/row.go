// Package tabular turns CSV and XLSX files into ordered rows of
// column -> value pairs, and writes header + rows back out in either format.
//
// Column names are normalized when a file is read (trimmed, lower-cased,
// inner whitespace collapsed to underscores) so that a header written as
// "Supplier" or " supplier " is looked up as "supplier".
package tabular

import (
	"strings"
	"unicode"
)

// Header is the normalized column list of a file, shared by all its rows.
type Header struct {
	names []string
	index map[string]int
}

// NewHeader normalizes raw header cells. When a column name repeats, the
// first occurrence wins on lookup.
func NewHeader(raw []string) *Header {
	h := &Header{
		names: make([]string, len(raw)),
		index: make(map[string]int, len(raw)),
	}
	for i, cell := range raw {
		name := NormalizeColumn(cell)
		h.names[i] = name
		if name == "" {
			continue
		}
		if _, dup := h.index[name]; !dup {
			h.index[name] = i
		}
	}
	return h
}

// Columns returns the normalized column names in file order.
func (h *Header) Columns() []string {
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Has reports whether the header contains the column.
func (h *Header) Has(col string) bool {
	_, ok := h.index[NormalizeColumn(col)]
	return ok
}

// NormalizeColumn converts a header cell into its lookup key:
// "  Supplier Name " -> "supplier_name".
func NormalizeColumn(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), "_")
}

// Row is one data line of a file. It is immutable once built.
type Row struct {
	// Index is the 1-based ordinal of the row among data rows.
	Index int
	// Line is the 1-based physical line (CSV) or sheet row (XLSX).
	Line int

	header *Header
	values []string
}

// NewRow builds a row over a shared header. values is copied.
func NewRow(index, line int, header *Header, values []string) Row {
	v := make([]string, len(values))
	copy(v, values)
	return Row{Index: index, Line: line, header: header, values: v}
}

// MakeRow builds a standalone row from alternating column/value pairs:
//
//	tabular.MakeRow(1, "name", "Steel Rod", "category", "Metals")
func MakeRow(index int, pairs ...string) Row {
	cols := make([]string, 0, len(pairs)/2)
	vals := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		cols = append(cols, pairs[i])
		vals = append(vals, pairs[i+1])
	}
	return NewRow(index, index+1, NewHeader(cols), vals)
}

// Get returns the cell for column col. ok is false when the file has no
// such column; a present column with a short row yields "" and true.
func (r Row) Get(col string) (string, bool) {
	if r.header == nil {
		return "", false
	}
	pos, ok := r.header.index[NormalizeColumn(col)]
	if !ok {
		return "", false
	}
	if pos >= len(r.values) {
		return "", true
	}
	return r.values[pos], true
}

// Columns returns the row's column names in file order.
func (r Row) Columns() []string {
	if r.header == nil {
		return nil
	}
	return r.header.Columns()
}

// Values returns a copy of the raw cell values in file order.
func (r Row) Values() []string {
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

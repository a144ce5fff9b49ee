package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/materials/internal/logging"
	"github.com/JonMunkholm/materials/internal/tabular"
)

// DefaultPlaceholder is written for missing relations and timestamps.
const DefaultPlaceholder = "N/A"

// DefaultTimeFormat renders timestamp columns.
const DefaultTimeFormat = "2006-01-02 15:04:05"

// ProjectOptions controls how values are rendered on export.
type ProjectOptions struct {
	Placeholder string
	TimeFormat  string
}

// Cell is one column of an ExportRow.
type Cell struct {
	Header string
	Value  string
}

// ExportRow is one material projected onto a FieldSpec, in spec order.
type ExportRow []Cell

// Values returns the cell values in order.
func (r ExportRow) Values() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Value
	}
	return out
}

// Project maps each material onto the columns of spec. References render
// as the related entity's name, or opts.Placeholder when the relation is
// missing.
func Project(views []MaterialView, spec FieldSpec, opts ProjectOptions) []ExportRow {
	if opts.TimeFormat == "" {
		opts.TimeFormat = DefaultTimeFormat
	}

	headers := spec.Headers()
	rules := make([]*fieldRule, len(spec.fields))
	for i, id := range spec.fields {
		rules[i] = lookupRule(id)
	}

	rows := make([]ExportRow, len(views))
	for i, v := range views {
		row := make(ExportRow, len(rules))
		for j, rule := range rules {
			row[j] = Cell{Header: headers[j], Value: rule.export(v, opts)}
		}
		rows[i] = row
	}
	return rows
}

// ExportTable projects views into a table ready for tabular.Write.
func ExportTable(views []MaterialView, spec FieldSpec, opts ProjectOptions) tabular.Table {
	projected := Project(views, spec, opts)
	t := tabular.Table{
		Sheet:   "Materials",
		Headers: spec.Headers(),
		Rows:    make([][]string, len(projected)),
	}
	for i, row := range projected {
		t.Rows[i] = row.Values()
	}
	return t
}

// WriteExport lists every live material in store, projects it onto spec
// and writes it to w. It returns the number of rows written.
func WriteExport(ctx context.Context, store Store, w io.Writer, spec FieldSpec, format tabular.Format, opts ProjectOptions) (int, error) {
	views, err := store.ListMaterials(ctx)
	if err != nil {
		return 0, fmt.Errorf("list materials: %w", err)
	}

	if err := tabular.Write(w, format, ExportTable(views, spec, opts)); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}

	logging.FromContext(ctx).Info("materials exported",
		"rows", len(views),
		"fields", spec.String(),
		"format", format,
	)
	return len(views), nil
}

func orPlaceholder(s *string, opts ProjectOptions) string {
	if s == nil {
		return opts.Placeholder
	}
	return *s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time, opts ProjectOptions) string {
	if t == nil || t.IsZero() {
		return opts.Placeholder
	}
	return t.Format(opts.TimeFormat)
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/JonMunkholm/materials/internal/core"
	"github.com/JonMunkholm/materials/internal/store/memory"
	"github.com/JonMunkholm/materials/internal/tabular"
)

func mustSpec(t *testing.T, fields ...string) core.FieldSpec {
	t.Helper()
	spec, err := core.ParseImportSpec(fields)
	if err != nil {
		t.Fatal(err)
	}
	return spec
}

// importTable round-trips a generated table through CSV and the importer.
func importTable(t *testing.T, spec core.FieldSpec, table tabular.Table) core.ImportSummary {
	t.Helper()
	var buf bytes.Buffer
	if err := tabular.Write(&buf, tabular.FormatCSV, table); err != nil {
		t.Fatal(err)
	}
	doc, err := tabular.Parse("seed.csv", buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return core.NewImporter(memory.New()).Run(context.Background(), doc.Rows, spec)
}

func TestGenerateSeed_Valid(t *testing.T) {
	spec := mustSpec(t, "name", "category", "supplier", "description", "file_path", "metadata")
	table := generateSeed(spec, seedOptions{Rows: 40, Seed: 42})

	if len(table.Rows) != 40 {
		t.Fatalf("rows = %d, want 40", len(table.Rows))
	}
	if !reflect.DeepEqual(table.Headers, spec.Headers()) {
		t.Errorf("Headers = %v", table.Headers)
	}

	summary := importTable(t, spec, table)
	if summary.Created != 40 || summary.Rejected != 0 {
		t.Errorf("created %d rejected %d, rejections %+v", summary.Created, summary.Rejected, summary.Rejections)
	}
}

func TestGenerateSeed_Deterministic(t *testing.T) {
	spec := mustSpec(t, core.DefaultFields...)
	a := generateSeed(spec, seedOptions{Rows: 10, Seed: 7, InvalidRatio: 0.3})
	b := generateSeed(spec, seedOptions{Rows: 10, Seed: 7, InvalidRatio: 0.3})

	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different tables")
	}
}

func TestGenerateSeed_AllInvalid(t *testing.T) {
	spec := mustSpec(t, "name", "category", "supplier", "metadata")
	table := generateSeed(spec, seedOptions{Rows: 25, Seed: 3, InvalidRatio: 1})

	summary := importTable(t, spec, table)
	if summary.Created != 0 || summary.Rejected != 25 {
		t.Fatalf("created %d rejected %d", summary.Created, summary.Rejected)
	}
	for _, r := range summary.Rejections {
		if r.Kind != core.RejectValidation {
			t.Errorf("row %d kind = %s, want validation", r.Row, r.Kind)
		}
	}
}

func TestGenerateSeed_PartialRatio(t *testing.T) {
	spec := mustSpec(t, "name", "category", "supplier", "metadata")
	table := generateSeed(spec, seedOptions{Rows: 200, Seed: 3, InvalidRatio: 0.5})

	summary := importTable(t, spec, table)
	if summary.Created+summary.Rejected != 200 {
		t.Fatalf("created %d + rejected %d != 200", summary.Created, summary.Rejected)
	}
	// Half of 200 draws lands well inside this band for any seed.
	if summary.Rejected < 50 || summary.Rejected > 150 {
		t.Errorf("rejected %d of 200 at ratio 0.5", summary.Rejected)
	}
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, "in.csv", core.ImportSummary{
		Total:    2,
		Created:  1,
		Rejected: 1,
		Rejections: []core.Rejection{
			{Row: 2, Line: 3, Kind: core.RejectValidation, Reason: "name: required field is empty"},
		},
	})

	got := out.String()
	for _, want := range []string{
		"Successfully imported 1 materials.",
		"Rejected: 1",
		"row 2 (line 3) [validation] name: required field is empty",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestLoadConfig_ListForms(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("import.fields", "name, category ,supplier,metadata")
	viper.Set("export.fields", []string{"uuid", "name"})
	viper.Set("export.placeholder", "-")

	c := loadConfig()
	if want := []string{"name", "category", "supplier", "metadata"}; !reflect.DeepEqual(c.Import.Fields, want) {
		t.Errorf("Import.Fields = %v, want %v", c.Import.Fields, want)
	}
	if want := []string{"uuid", "name"}; !reflect.DeepEqual(c.Export.Fields, want) {
		t.Errorf("Export.Fields = %v, want %v", c.Export.Fields, want)
	}
	if c.Export.Placeholder != "-" {
		t.Errorf("Placeholder = %q", c.Export.Placeholder)
	}
}

func TestErrorText(t *testing.T) {
	err := fmt.Errorf("export to out.csv: %w", core.ErrUnknownField)
	got := errorText(err)
	if !strings.HasPrefix(got, err.Error()) || !strings.Contains(got, "(Code: ") {
		t.Errorf("errorText() = %q, want error plus support code", got)
	}

	plain := errors.New("open out.csv: permission denied")
	if got := errorText(plain); got != plain.Error() {
		t.Errorf("errorText() = %q, want %q", got, plain.Error())
	}
}

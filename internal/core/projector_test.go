package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/materials/internal/tabular"
)

func strPtr(s string) *string { return &s }

func TestProject_DefaultFields(t *testing.T) {
	spec, _ := ParseExportSpec(nil)
	views := []MaterialView{{
		Name:        "Steel Rod",
		Category:    strPtr("Metals"),
		Supplier:    strPtr("Acme Co"),
		Description: strPtr("Cold rolled"),
	}}

	rows := Project(views, spec, ProjectOptions{Placeholder: "N/A"})
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}

	var headers []string
	for _, c := range rows[0] {
		headers = append(headers, c.Header)
	}
	if want := []string{"Name", "Category", "Supplier", "Description"}; !reflect.DeepEqual(headers, want) {
		t.Errorf("headers = %v, want %v", headers, want)
	}
	if want := []string{"Steel Rod", "Metals", "Acme Co", "Cold rolled"}; !reflect.DeepEqual(rows[0].Values(), want) {
		t.Errorf("values = %v, want %v", rows[0].Values(), want)
	}
}

func TestProject_PlaceholdersAndFormatting(t *testing.T) {
	spec, err := ParseExportSpec([]string{"uuid", "name", "category_id", "supplier", "description", "metadata", "created_at", "updated_at"})
	if err != nil {
		t.Fatal(err)
	}
	created := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	id := uuid.MustParse("6f1c1b7e-3c0a-4d8e-9a57-0d2f8c3b9e11")
	views := []MaterialView{{
		UUID:      id,
		Name:      "Orphan",
		Metadata:  json.RawMessage(`{"grade":304}`),
		CreatedAt: &created,
	}}

	got := Project(views, spec, ProjectOptions{Placeholder: "N/A", TimeFormat: DefaultTimeFormat})[0].Values()
	want := []string{id.String(), "Orphan", "N/A", "N/A", "", `{"grade":304}`, "2024-03-09 14:05:07", "N/A"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("values = %q, want %q", got, want)
	}
}

func TestProject_EmptyInput(t *testing.T) {
	spec, _ := ParseExportSpec(nil)
	if rows := Project(nil, spec, ProjectOptions{}); len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}

func TestExportTable(t *testing.T) {
	spec, _ := ParseExportSpec([]string{"supplier", "name"})
	views := []MaterialView{
		{Name: "A", Supplier: strPtr("Acme")},
		{Name: "B"},
	}

	table := ExportTable(views, spec, ProjectOptions{Placeholder: "-"})

	if !reflect.DeepEqual(table.Headers, []string{"Supplier", "Name"}) {
		t.Errorf("Headers = %v", table.Headers)
	}
	want := [][]string{{"Acme", "A"}, {"-", "B"}}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("Rows = %v, want %v", table.Rows, want)
	}
}

func TestWriteExport(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	catID, _ := store.CreateEntity(ctx, KindCategory, "Metals")
	if _, err := store.CreateMaterial(ctx, Material{Name: "Steel Rod", CategoryID: catID}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateMaterial(ctx, Material{Name: "Oak Plank"}); err != nil {
		t.Fatal(err)
	}
	spec, _ := ParseExportSpec([]string{"name", "category"})

	var buf bytes.Buffer
	n, err := WriteExport(ctx, store, &buf, spec, tabular.FormatCSV, ProjectOptions{Placeholder: "N/A"})
	if err != nil {
		t.Fatalf("WriteExport() error = %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
	want := "Name,Category\nSteel Rod,Metals\nOak Plank,N/A\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestWriteExport_ListError(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("connection reset")
	spec, _ := ParseExportSpec(nil)

	var buf bytes.Buffer
	n, err := WriteExport(context.Background(), store, &buf, spec, tabular.FormatCSV, ProjectOptions{})
	if !errors.Is(err, store.listErr) {
		t.Fatalf("err = %v, want list error", err)
	}
	if n != 0 || buf.Len() != 0 {
		t.Errorf("n = %d, wrote %d bytes", n, buf.Len())
	}
}

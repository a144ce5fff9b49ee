package core

import (
	"testing"

	"github.com/JonMunkholm/materials/internal/tabular"
)

func mustImportSpec(t *testing.T, ids ...string) FieldSpec {
	t.Helper()
	if len(ids) == 0 {
		ids = DefaultFields
	}
	spec, err := ParseImportSpec(ids)
	if err != nil {
		t.Fatalf("ParseImportSpec(%v) error = %v", ids, err)
	}
	return spec
}

func TestValidate(t *testing.T) {
	spec := mustImportSpec(t, "name", "category", "supplier", "description", "metadata", "file_path")

	tests := []struct {
		name       string
		row        tabular.Row
		wantValid  bool
		wantFields []FieldID
		wantReason string
	}{
		{
			name:      "complete row",
			row:       tabular.MakeRow(1, "name", "Steel Rod", "category", "Metals", "supplier", "Acme Co", "description", "Cold rolled"),
			wantValid: true,
		},
		{
			name:       "empty name",
			row:        tabular.MakeRow(1, "name", "", "category", "Metals", "supplier", "Acme Co"),
			wantFields: []FieldID{FieldName},
			wantReason: "name: required field is empty",
		},
		{
			name:       "whitespace supplier",
			row:        tabular.MakeRow(1, "name", "Rod", "category", "Metals", "supplier", "   "),
			wantFields: []FieldID{FieldSupplier},
		},
		{
			name:       "missing columns reports all",
			row:        tabular.MakeRow(1, "title", "Rod"),
			wantFields: []FieldID{FieldName, FieldCategory, FieldSupplier},
			wantReason: "name: missing required column; category: missing required column; supplier: missing required column",
		},
		{
			name:       "invalid metadata",
			row:        tabular.MakeRow(1, "name", "Rod", "category", "Metals", "supplier", "Acme", "metadata", "{oops"),
			wantFields: []FieldID{FieldMetadata},
			wantReason: "metadata: must be valid JSON",
		},
		{
			name:      "extra columns ignored",
			row:       tabular.MakeRow(1, "name", "Rod", "category", "Metals", "supplier", "Acme", "colour", "red"),
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.row, spec)
			if got.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (errors: %v)", got.Valid, tt.wantValid, got.Errors)
			}
			if len(got.Errors) != len(tt.wantFields) {
				t.Fatalf("Errors = %v, want fields %v", got.Errors, tt.wantFields)
			}
			for i, f := range tt.wantFields {
				if got.Errors[i].Field != f {
					t.Errorf("Errors[%d].Field = %q, want %q", i, got.Errors[i].Field, f)
				}
			}
			if tt.wantReason != "" && got.Reason() != tt.wantReason {
				t.Errorf("Reason() = %q, want %q", got.Reason(), tt.wantReason)
			}
		})
	}
}

func TestValidate_ValuesPassThrough(t *testing.T) {
	spec := mustImportSpec(t, "name", "category", "supplier", "description", "metadata")
	row := tabular.MakeRow(4,
		"name", " Steel Rod ",
		"category", "metals",
		"supplier", "Acme Co",
		"description", "  keep my spacing ",
		"metadata", ` {"grade": 304} `,
	)

	got := Validate(row, spec)
	if !got.Valid {
		t.Fatalf("Validate() errors = %v", got.Errors)
	}
	if got.Row.Name != " Steel Rod " {
		t.Errorf("Name = %q, want value as given", got.Row.Name)
	}
	if got.Row.Category != "metals" {
		t.Errorf("Category = %q, want case preserved", got.Row.Category)
	}
	if got.Row.Description == nil || *got.Row.Description != "  keep my spacing " {
		t.Errorf("Description = %v, want unmodified", got.Row.Description)
	}
	if string(got.Row.Metadata) != `{"grade": 304}` {
		t.Errorf("Metadata = %s", got.Row.Metadata)
	}
}

func TestValidate_OptionalFieldsDefaultToNil(t *testing.T) {
	spec := mustImportSpec(t, "name", "category", "supplier", "description", "metadata", "file_path")
	row := tabular.MakeRow(1, "name", "Rod", "category", "Metals", "supplier", "Acme", "description", "", "metadata", "")

	got := Validate(row, spec)
	if !got.Valid {
		t.Fatalf("Validate() errors = %v", got.Errors)
	}
	if got.Row.Description != nil || got.Row.FilePath != nil || got.Row.Metadata != nil {
		t.Errorf("optional fields = %+v, want nil", got.Row)
	}
}

func TestValidate_FieldNotInSpecIsNotRead(t *testing.T) {
	spec := mustImportSpec(t, "name", "category", "supplier")
	row := tabular.MakeRow(1, "name", "Rod", "category", "Metals", "supplier", "Acme", "description", "ignored")

	got := Validate(row, spec)
	if got.Row.Description != nil {
		t.Errorf("Description = %q, want nil when not in the field list", *got.Row.Description)
	}
}

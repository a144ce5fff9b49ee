package core

// validation.go checks one parsed row before anything touches the store.
//
// Only fields in the import FieldSpec are read; extra columns are ignored.
// Every problem in the row is reported, so a rejection names all missing
// fields at once rather than the first one found.

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JonMunkholm/materials/internal/tabular"
)

// Validation reasons.
const (
	reasonMissingColumn = "missing required column"
	reasonEmpty         = "required field is empty"
	reasonInvalidJSON   = "must be valid JSON"
)

// FieldError is one problem with one field of a row.
type FieldError struct {
	Field  FieldID `json:"field"`
	Reason string  `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidatedRow holds the values of a row that passed validation.
// Required values are kept exactly as given.
type ValidatedRow struct {
	Name        string
	Category    string
	Supplier    string
	Description *string
	FilePath    *string
	Metadata    json.RawMessage
}

// ValidationOutcome is the result of Validate. Row is only meaningful when
// Valid is true.
type ValidationOutcome struct {
	Valid  bool
	Errors []FieldError
	Row    ValidatedRow
}

// Reason joins the field errors into one line.
func (o ValidationOutcome) Reason() string {
	parts := make([]string, len(o.Errors))
	for i, e := range o.Errors {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Validate checks row against spec. Required fields must be present and
// not blank; optional fields left empty become nil. It has no side effects.
func Validate(row tabular.Row, spec FieldSpec) ValidationOutcome {
	out := ValidationOutcome{Valid: true}
	fail := func(id FieldID, reason string) {
		out.Valid = false
		out.Errors = append(out.Errors, FieldError{Field: id, Reason: reason})
	}

	for _, id := range spec.fields {
		rule := lookupRule(id)
		value, present := row.Get(string(id))

		if rule.Required {
			switch {
			case !present:
				fail(id, reasonMissingColumn)
				continue
			case strings.TrimSpace(value) == "":
				fail(id, reasonEmpty)
				continue
			}
		}

		switch id {
		case FieldName:
			out.Row.Name = value
		case FieldCategory:
			out.Row.Category = value
		case FieldSupplier:
			out.Row.Supplier = value
		case FieldDescription:
			out.Row.Description = optional(value)
		case FieldFilePath:
			out.Row.FilePath = optional(strings.TrimSpace(value))
		case FieldMetadata:
			raw := strings.TrimSpace(value)
			if raw == "" {
				continue
			}
			if !json.Valid([]byte(raw)) {
				fail(id, reasonInvalidJSON)
				continue
			}
			out.Row.Metadata = json.RawMessage(raw)
		}
	}

	if !out.Valid {
		out.Row = ValidatedRow{}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

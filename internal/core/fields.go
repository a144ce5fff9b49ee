package core

// fields.go is the field registry shared by import and export.
//
// Every column the pipeline can read or write is declared once in
// fieldRules: its identifier, the column header, whether an import needs
// it, and how export renders it. A FieldSpec is an ordered, validated
// selection from this table; building one is the only place unknown
// identifiers are rejected.

import (
	"fmt"
	"strings"
	"unicode"
)

// FieldID is a registered field identifier.
type FieldID string

const (
	FieldName        FieldID = "name"
	FieldCategory    FieldID = "category"
	FieldSupplier    FieldID = "supplier"
	FieldDescription FieldID = "description"
	FieldFilePath    FieldID = "file_path"
	FieldMetadata    FieldID = "metadata"
	FieldCreatedAt   FieldID = "created_at"
	FieldUpdatedAt   FieldID = "updated_at"
	FieldUUID        FieldID = "uuid"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindReference
	kindJSON
	kindTimestamp
)

// fieldRule declares one registered field.
type fieldRule struct {
	ID         FieldID
	Kind       fieldKind
	Header     string   // overrides the derived header when set
	Aliases    []string // deprecated identifiers accepted in field lists
	Required   bool     // an import cannot build a material without it
	Importable bool
	Exportable bool

	export func(v MaterialView, opts ProjectOptions) string
}

var fieldRules = []fieldRule{
	{
		ID: FieldName, Kind: kindText, Required: true, Importable: true, Exportable: true,
		export: func(v MaterialView, _ ProjectOptions) string { return v.Name },
	},
	{
		ID: FieldCategory, Kind: kindReference, Aliases: []string{"category_id"},
		Required: true, Importable: true, Exportable: true,
		export: func(v MaterialView, o ProjectOptions) string { return orPlaceholder(v.Category, o) },
	},
	{
		ID: FieldSupplier, Kind: kindReference, Aliases: []string{"supplier_id"},
		Required: true, Importable: true, Exportable: true,
		export: func(v MaterialView, o ProjectOptions) string { return orPlaceholder(v.Supplier, o) },
	},
	{
		ID: FieldDescription, Kind: kindText, Importable: true, Exportable: true,
		export: func(v MaterialView, _ ProjectOptions) string { return deref(v.Description) },
	},
	{
		ID: FieldFilePath, Kind: kindText, Importable: true, Exportable: true,
		export: func(v MaterialView, _ ProjectOptions) string { return deref(v.FilePath) },
	},
	{
		ID: FieldMetadata, Kind: kindJSON, Importable: true, Exportable: true,
		export: func(v MaterialView, _ ProjectOptions) string { return string(v.Metadata) },
	},
	{
		ID: FieldCreatedAt, Kind: kindTimestamp, Exportable: true,
		export: func(v MaterialView, o ProjectOptions) string { return formatTime(v.CreatedAt, o) },
	},
	{
		ID: FieldUpdatedAt, Kind: kindTimestamp, Exportable: true,
		export: func(v MaterialView, o ProjectOptions) string { return formatTime(v.UpdatedAt, o) },
	},
	{
		ID: FieldUUID, Kind: kindText, Header: "UUID", Exportable: true,
		export: func(v MaterialView, _ ProjectOptions) string { return v.UUID.String() },
	},
}

// rulesByName indexes fieldRules by identifier and alias.
var rulesByName = func() map[string]*fieldRule {
	m := make(map[string]*fieldRule, len(fieldRules)*2)
	for i := range fieldRules {
		r := &fieldRules[i]
		m[string(r.ID)] = r
		for _, alias := range r.Aliases {
			m[alias] = r
		}
	}
	return m
}()

func lookupRule(id FieldID) *fieldRule {
	return rulesByName[string(id)]
}

// FieldSpec is an ordered list of distinct registered fields.
type FieldSpec struct {
	fields []FieldID
}

// DefaultFields is the field list used when none is configured.
var DefaultFields = []string{"name", "category", "supplier", "description"}

// ParseImportSpec builds the field list read on import. It must include
// every required field, and only importable fields are accepted.
func ParseImportSpec(ids []string) (FieldSpec, error) {
	spec, err := parseSpec(ids, "import", func(r *fieldRule) bool { return r.Importable })
	if err != nil {
		return FieldSpec{}, err
	}

	var missing []string
	for _, r := range fieldRules {
		if r.Required && !spec.Has(r.ID) {
			missing = append(missing, string(r.ID))
		}
	}
	if len(missing) > 0 {
		return FieldSpec{}, fmt.Errorf("%w: import fields must include %s",
			ErrInvalidFieldSpec, strings.Join(missing, ", "))
	}
	return spec, nil
}

// ParseExportSpec builds the column list written on export. An empty list
// yields DefaultFields.
func ParseExportSpec(ids []string) (FieldSpec, error) {
	if len(ids) == 0 {
		ids = DefaultFields
	}
	return parseSpec(ids, "export", func(r *fieldRule) bool { return r.Exportable })
}

func parseSpec(ids []string, op string, allowed func(*fieldRule) bool) (FieldSpec, error) {
	if len(ids) == 0 {
		return FieldSpec{}, fmt.Errorf("%w: no %s fields", ErrInvalidFieldSpec, op)
	}

	spec := FieldSpec{fields: make([]FieldID, 0, len(ids))}
	seen := make(map[FieldID]string, len(ids))
	for _, raw := range ids {
		name := strings.ToLower(strings.TrimSpace(raw))
		rule, ok := rulesByName[name]
		if !ok {
			return FieldSpec{}, fmt.Errorf("%w: %q", ErrUnknownField, raw)
		}
		if !allowed(rule) {
			return FieldSpec{}, fmt.Errorf("%w: %q cannot be used for %s", ErrUnknownField, raw, op)
		}
		if prev, dup := seen[rule.ID]; dup {
			return FieldSpec{}, fmt.Errorf("%w: %q duplicates %q", ErrInvalidFieldSpec, raw, prev)
		}
		seen[rule.ID] = raw
		spec.fields = append(spec.fields, rule.ID)
	}
	return spec, nil
}

// Fields returns the identifiers in order.
func (s FieldSpec) Fields() []FieldID {
	out := make([]FieldID, len(s.fields))
	copy(out, s.fields)
	return out
}

// Has reports whether id is one of the fields.
func (s FieldSpec) Has(id FieldID) bool {
	for _, f := range s.fields {
		if f == id {
			return true
		}
	}
	return false
}

// Headers returns one display header per field, in order.
func (s FieldSpec) Headers() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = HeaderFor(f)
	}
	return out
}

// String returns the comma-separated identifiers.
func (s FieldSpec) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

// HeaderFor derives the display header of a field: underscores become
// spaces and each word is capitalized ("created_at" -> "Created At").
func HeaderFor(id FieldID) string {
	if r := lookupRule(id); r != nil && r.Header != "" {
		return r.Header
	}
	words := strings.Split(string(id), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

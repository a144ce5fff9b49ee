package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntityKind names the related entities a material references by name.
type EntityKind string

const (
	KindCategory EntityKind = "category"
	KindSupplier EntityKind = "supplier"
)

// Material is a new record ready to be persisted. The store assigns the
// ID, UUID and timestamps.
type Material struct {
	Name        string
	CategoryID  int64
	SupplierID  int64
	Description *string
	FilePath    *string
	Metadata    json.RawMessage // nil is stored as NULL
}

// MaterialView is a persisted material joined with its related entity
// names, as read for export. Category and Supplier are nil when the
// relation is missing.
type MaterialView struct {
	ID          int64
	UUID        uuid.UUID
	Name        string
	Category    *string
	Supplier    *string
	Description *string
	FilePath    *string
	Metadata    json.RawMessage
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

// Store is the persistence layer the pipeline runs against.
//
// FindEntity matches names exactly (case-sensitive). CreateEntity must
// return ErrEntityExists when the name is already taken so concurrent
// importers converge on one row per name.
type Store interface {
	FindEntity(ctx context.Context, kind EntityKind, name string) (id int64, found bool, err error)
	CreateEntity(ctx context.Context, kind EntityKind, name string) (int64, error)
	CreateMaterial(ctx context.Context, m Material) (int64, error)
	ListMaterials(ctx context.Context) ([]MaterialView, error)
}

// RowStatus is the outcome of one row.
type RowStatus string

const (
	RowCreated  RowStatus = "created"
	RowRejected RowStatus = "rejected"
)

// RejectionKind classifies why a row was rejected.
type RejectionKind string

const (
	RejectValidation  RejectionKind = "validation"
	RejectResolution  RejectionKind = "resolution"
	RejectPersistence RejectionKind = "persistence"
)

// RowResult is the per-row outcome. Errors never escape the orchestrator;
// they are reported here instead.
type RowResult struct {
	Index    int
	Line     int
	Status   RowStatus
	RecordID int64
	Kind     RejectionKind
	Fields   []FieldError
	Reason   string
}

// Rejection is one rejected row in an ImportSummary.
type Rejection struct {
	Row    int           `json:"row"`
	Line   int           `json:"line"`
	Kind   RejectionKind `json:"kind"`
	Reason string        `json:"reason"`
	Fields []FieldError  `json:"fields,omitempty"`
}

// ImportSummary aggregates every RowResult of a batch. Rejections are
// ordered by row index.
type ImportSummary struct {
	Total      int         `json:"total"`
	Created    int         `json:"created"`
	Rejected   int         `json:"rejected"`
	Rejections []Rejection `json:"rejections"`
	DurationMS int64       `json:"duration_ms"`

	// Results holds the per-row outcomes in row order.
	Results []RowResult `json:"-"`
}

// ProgressFunc is called after each processed row. It may be called from
// several goroutines but never concurrently.
type ProgressFunc func(done, total int)

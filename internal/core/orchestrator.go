package core

// orchestrator.go drives a batch through validate -> resolve -> build ->
// persist.
//
// Each row is independent: a row that fails at any step becomes a
// rejection and the batch moves on. Nothing but a panic leaves Run; the
// caller always gets an ImportSummary. Run behaves the same inline or on a
// worker, since it holds no state between calls.

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/materials/internal/logging"
	"github.com/JonMunkholm/materials/internal/tabular"
)

// Importer runs import batches against a Store.
type Importer struct {
	store       Store
	concurrency int
	progress    ProgressFunc
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithConcurrency processes up to n rows of a batch in parallel.
// n <= 1 processes rows one at a time in file order.
func WithConcurrency(n int) ImporterOption {
	return func(im *Importer) { im.concurrency = n }
}

// WithProgress registers a callback invoked after each row.
func WithProgress(fn ProgressFunc) ImporterOption {
	return func(im *Importer) { im.progress = fn }
}

// NewImporter creates an Importer.
func NewImporter(store Store, opts ...ImporterOption) *Importer {
	im := &Importer{store: store, concurrency: 1}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Run imports rows and returns the batch summary.
func (im *Importer) Run(ctx context.Context, rows []tabular.Row, spec FieldSpec) ImportSummary {
	start := time.Now()
	logger := logging.FromContext(ctx)
	resolver := NewEntityResolver(im.store)
	results := make([]RowResult, len(rows))

	var (
		progressMu sync.Mutex
		done       int
	)
	report := func() {
		if im.progress == nil {
			return
		}
		progressMu.Lock()
		done++
		im.progress(done, len(rows))
		progressMu.Unlock()
	}

	if im.concurrency <= 1 {
		for i, row := range rows {
			results[i] = im.processRow(ctx, resolver, row, spec)
			report()
		}
	} else {
		var (
			g        errgroup.Group
			panicMu  sync.Mutex
			panicked any
		)
		g.SetLimit(im.concurrency)
		for i, row := range rows {
			i, row := i, row
			g.Go(func() error {
				defer func() {
					if p := recover(); p != nil {
						panicMu.Lock()
						if panicked == nil {
							panicked = p
						}
						panicMu.Unlock()
					}
				}()
				results[i] = im.processRow(ctx, resolver, row, spec)
				report()
				return nil
			})
		}
		_ = g.Wait()
		if panicked != nil {
			// Re-raise on the caller's goroutine so the job runner sees it.
			panic(panicked)
		}
	}

	summary := summarize(results)
	summary.DurationMS = time.Since(start).Milliseconds()

	logger.Info("import batch finished",
		"total", summary.Total,
		"created", summary.Created,
		"rejected", summary.Rejected,
		"entities_created", resolver.Created(),
		"duration_ms", summary.DurationMS,
	)
	return summary
}

func (im *Importer) processRow(ctx context.Context, resolver *EntityResolver, row tabular.Row, spec FieldSpec) RowResult {
	res := RowResult{Index: row.Index, Line: row.Line}
	logger := logging.FromContext(ctx)

	reject := func(kind RejectionKind, reason string) RowResult {
		res.Status = RowRejected
		res.Kind = kind
		res.Reason = reason
		logger.Debug("row rejected", "row", row.Index, "line", row.Line, "kind", kind, "reason", reason)
		return res
	}

	outcome := Validate(row, spec)
	if !outcome.Valid {
		res.Fields = outcome.Errors
		return reject(RejectValidation, outcome.Reason())
	}

	categoryID, err := resolver.Resolve(ctx, KindCategory, outcome.Row.Category)
	if err != nil {
		return reject(RejectResolution, err.Error())
	}
	supplierID, err := resolver.Resolve(ctx, KindSupplier, outcome.Row.Supplier)
	if err != nil {
		return reject(RejectResolution, err.Error())
	}

	id, err := im.store.CreateMaterial(ctx, BuildMaterial(outcome.Row, categoryID, supplierID))
	if err != nil {
		return reject(RejectPersistence, (&PersistenceError{Err: err}).Error())
	}

	res.Status = RowCreated
	res.RecordID = id
	return res
}

// summarize folds row results into a summary ordered by row index.
func summarize(results []RowResult) ImportSummary {
	sorted := make([]RowResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	s := ImportSummary{
		Total:      len(sorted),
		Rejections: []Rejection{},
		Results:    sorted,
	}
	for _, r := range sorted {
		switch r.Status {
		case RowCreated:
			s.Created++
		case RowRejected:
			s.Rejected++
			s.Rejections = append(s.Rejections, Rejection{
				Row:    r.Index,
				Line:   r.Line,
				Kind:   r.Kind,
				Reason: r.Reason,
				Fields: r.Fields,
			})
		default:
			panic(fmt.Sprintf("row %d has no result", r.Index))
		}
	}
	return s
}

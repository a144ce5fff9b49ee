package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/materials/internal/config"
	"github.com/JonMunkholm/materials/internal/logging"
	"github.com/JonMunkholm/materials/internal/tabular"
)

// Import response statuses.
const (
	StatusCompleted = "completed"
	StatusQueued    = "queued"
	StatusError     = "error"
)

const (
	msgImported        = "Successfully imported %d materials."
	msgNothingImported = "Import completed, but no materials were added. Check the file format."
	msgQueued          = "Import started in background. This may take a while to complete."
)

// ImportResult is what the caller of Service.Import gets back. Deferred
// imports carry only the job ID; the summary is read from the job later.
type ImportResult struct {
	Mode    Mode
	Status  string
	Message string
	Count   int
	JobID   string
	Summary *ImportSummary
}

// Service is the entry point for imports, exports and job status.
type Service struct {
	store   Store
	jobs    JobStore
	runner  *JobRunner
	limiter *ImportLimiter

	selector     ModeSelector
	importSpec   FieldSpec
	exportSpec   FieldSpec
	project      ProjectOptions
	exportFormat tabular.Format
	maxFileSize  int64

	jobRetention  time.Duration
	sweepInterval time.Duration
}

// NewService validates the configured field lists and starts the
// deferred-import workers. Call Shutdown to stop them.
func NewService(store Store, jobs JobStore, cfg *config.Config) (*Service, error) {
	importSpec, err := ParseImportSpec(cfg.Import.Fields)
	if err != nil {
		return nil, fmt.Errorf("IMPORT_FIELDS: %w", err)
	}
	exportSpec, err := ParseExportSpec(cfg.Export.Fields)
	if err != nil {
		return nil, fmt.Errorf("EXPORT_FIELDS: %w", err)
	}
	format, err := tabular.ParseFormat(cfg.Export.Format)
	if err != nil {
		return nil, fmt.Errorf("EXPORT_FORMAT: %w", err)
	}
	if jobs == nil {
		jobs = NewMemoryJobStore()
	}

	importer := NewImporter(store, WithConcurrency(cfg.Import.RowConcurrency))

	return &Service{
		store:        store,
		jobs:         jobs,
		runner:       NewJobRunner(importer, jobs, cfg.Import.Workers, cfg.Import.QueueSize),
		limiter:      NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		selector:     ModeSelector{Threshold: cfg.Import.SyncThreshold},
		importSpec:   importSpec,
		exportSpec:   exportSpec,
		exportFormat: format,
		maxFileSize:  cfg.Import.MaxFileSize,
		project: ProjectOptions{
			Placeholder: cfg.Export.Placeholder,
			TimeFormat:  cfg.Export.TimeFormat,
		},
		jobRetention:  cfg.Import.JobRetention,
		sweepInterval: cfg.Import.SweepInterval,
	}, nil
}

// Import runs or queues an import of the file, depending on its size.
//
// Immediate imports block until every row is processed and return the
// summary. A file that cannot be read returns a *PipelineFatalError.
// Deferred imports return as soon as the job is queued.
func (s *Service) Import(ctx context.Context, fileName string, data []byte) (ImportResult, error) {
	size := int64(len(data))
	if s.maxFileSize > 0 && size > s.maxFileSize {
		return ImportResult{Status: StatusError}, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, s.maxFileSize)
	}

	mode := s.selector.Select(size)
	logger := logging.WithFields(ctx, "file", fileName, "bytes", size, "mode", mode)
	source := FileSource(fileName, data)

	if mode == ModeDeferred {
		handle, err := s.runner.Submit(ctx, fileName, source, s.importSpec)
		if err != nil {
			logger.Warn("import not queued", "error", err)
			return ImportResult{Mode: mode, Status: StatusError}, err
		}
		return ImportResult{
			Mode:    mode,
			Status:  StatusQueued,
			Message: msgQueued,
			JobID:   handle.ID(),
		}, nil
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		logger.Warn("import slot not available", "error", err)
		return ImportResult{Mode: mode, Status: StatusError}, err
	}
	defer s.limiter.Release()

	status, err := s.runner.RunInline(ctx, fileName, source, s.importSpec)
	if err != nil {
		return ImportResult{Mode: mode, Status: StatusError, JobID: status.ID}, err
	}

	return ImportResult{
		Mode:    mode,
		Status:  StatusCompleted,
		Message: ImportMessage(status.Summary.Created),
		Count:   status.Summary.Created,
		JobID:   status.ID,
		Summary: status.Summary,
	}, nil
}

// ImportMessage is the summary line for a finished import. A batch that
// created nothing points at the file format.
func ImportMessage(created int) string {
	if created == 0 {
		return msgNothingImported
	}
	return fmt.Sprintf(msgImported, created)
}

// ImportSpec returns the configured import field list.
func (s *Service) ImportSpec() FieldSpec {
	return s.importSpec
}

// ExportSpec parses a requested column list, falling back to the
// configured default when none is given.
func (s *Service) ExportSpec(fields []string) (FieldSpec, error) {
	if len(fields) == 0 {
		return s.exportSpec, nil
	}
	return ParseExportSpec(fields)
}

// ExportFormat parses a requested format, falling back to the configured
// default when none is given.
func (s *Service) ExportFormat(name string) (tabular.Format, error) {
	if name == "" {
		return s.exportFormat, nil
	}
	return tabular.ParseFormat(name)
}

// Export writes every live material projected onto spec and returns the
// number of rows written.
func (s *Service) Export(ctx context.Context, w io.Writer, spec FieldSpec, format tabular.Format) (int, error) {
	return WriteExport(ctx, s.store, w, spec, format, s.project)
}

// WriteTemplate writes a header-only file with the import columns.
func (s *Service) WriteTemplate(w io.Writer, format tabular.Format) error {
	return tabular.Write(w, format, tabular.Table{
		Sheet:   "Materials",
		Headers: s.importSpec.Headers(),
	})
}

// JobStatus returns the status of an import job.
func (s *Service) JobStatus(ctx context.Context, id string) (JobStatus, error) {
	return s.jobs.Get(ctx, id)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks the store connection. Stores without one always succeed.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.store.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// ImportStats reports import capacity for health checks.
type ImportStats struct {
	ActiveImports  int `json:"active_imports"`
	AvailableSlots int `json:"available_slots"`
	QueuedJobs     int `json:"queued_jobs"`
}

// Stats returns the current import capacity.
func (s *Service) Stats() ImportStats {
	return ImportStats{
		ActiveImports:  s.limiter.Active(),
		AvailableSlots: s.limiter.Available(),
		QueuedJobs:     s.runner.Queued(),
	}
}

// StartSweeper purges expired jobs until ctx is cancelled. It blocks;
// run it on its own goroutine.
func (s *Service) StartSweeper(ctx context.Context) {
	StartJobSweeper(ctx, s.jobs, s.jobRetention, s.sweepInterval)
}

// Shutdown stops accepting deferred imports and waits for queued jobs and
// in-flight immediate imports to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	return errors.Join(
		s.runner.Shutdown(ctx),
		s.limiter.WaitForDrain(ctx),
	)
}

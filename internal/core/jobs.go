package core

// jobs.go runs import batches as jobs with an observable terminal state.
//
// Deferred imports are queued to a fixed pool of workers; immediate
// imports run the same job logic on the caller's goroutine. Either way a
// job moves Pending -> Running -> {Completed, CompletedWithRejections,
// Failed} and reaches its terminal state exactly once, even when the
// batch panics.

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/materials/internal/logging"
	"github.com/JonMunkholm/materials/internal/tabular"
)

// JobState is the lifecycle state of an import job.
type JobState string

const (
	JobPending                 JobState = "pending"
	JobRunning                 JobState = "running"
	JobCompleted               JobState = "completed"
	JobCompletedWithRejections JobState = "completed_with_rejections"
	JobFailed                  JobState = "failed"
)

// Terminal reports whether the job has finished.
func (s JobState) Terminal() bool {
	switch s {
	case JobCompleted, JobCompletedWithRejections, JobFailed:
		return true
	default:
		return false
	}
}

// JobStatus is the externally visible state of a job.
type JobStatus struct {
	ID         string         `json:"id"`
	Mode       Mode           `json:"mode"`
	FileName   string         `json:"file_name"`
	State      JobState       `json:"state"`
	Summary    *ImportSummary `json:"summary,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// JobStore records job status so it can be queried after the fact.
type JobStore interface {
	Save(ctx context.Context, status JobStatus) error
	// Get returns ErrJobNotFound for unknown or expired IDs.
	Get(ctx context.Context, id string) (JobStatus, error)
	// Purge removes finished jobs older than before and returns how many.
	Purge(ctx context.Context, before time.Time) (int, error)
}

// RowSource produces the rows of a job. It runs inside the job, so a
// parse failure becomes the job's Failed state.
type RowSource func(ctx context.Context) ([]tabular.Row, error)

// RowsSource wraps already-parsed rows.
func RowsSource(rows []tabular.Row) RowSource {
	return func(context.Context) ([]tabular.Row, error) { return rows, nil }
}

// FileSource parses data when the job starts.
func FileSource(fileName string, data []byte) RowSource {
	return func(context.Context) ([]tabular.Row, error) {
		doc, err := tabular.Parse(fileName, data)
		if err != nil {
			return nil, err
		}
		return doc.Rows, nil
	}
}

type job struct {
	ctx    context.Context
	status JobStatus
	source RowSource
	spec   FieldSpec

	once  sync.Once
	done  chan struct{}
	final JobStatus
}

// JobHandle is returned by Submit to observe a deferred job.
type JobHandle struct {
	job *job
}

// ID returns the job ID.
func (h *JobHandle) ID() string {
	return h.job.status.ID
}

// Done is closed when the job reaches a terminal state.
func (h *JobHandle) Done() <-chan struct{} {
	return h.job.done
}

// Wait blocks until the job finishes or ctx is done.
func (h *JobHandle) Wait(ctx context.Context) (JobStatus, error) {
	select {
	case <-h.job.done:
		return h.job.final, nil
	case <-ctx.Done():
		return JobStatus{}, ctx.Err()
	}
}

// JobRunner owns the deferred-import worker pool.
type JobRunner struct {
	importer *Importer
	store    JobStore
	queue    chan *job
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewJobRunner starts workers that drain a queue of queueSize jobs.
func NewJobRunner(importer *Importer, store JobStore, workers, queueSize int) *JobRunner {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	r := &JobRunner{
		importer: importer,
		store:    store,
		queue:    make(chan *job, queueSize),
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Submit queues a deferred import and returns without waiting for it.
// It fails with ErrQueueFull when no queue slot is free.
//
// The job keeps ctx's values (request ID) but not its cancellation; once
// accepted, a job runs to completion.
func (r *JobRunner) Submit(ctx context.Context, fileName string, source RowSource, spec FieldSpec) (*JobHandle, error) {
	j := r.newJob(ctx, ModeDeferred, fileName, source, spec)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrRunnerClosed
	}

	r.save(j.ctx, j.status)

	select {
	case r.queue <- j:
		logging.FromContext(j.ctx).Info("import job queued", "queued", len(r.queue))
		return &JobHandle{job: j}, nil
	default:
		failed := j.status
		failed.State = JobFailed
		failed.Error = ErrQueueFull.Error()
		now := time.Now()
		failed.FinishedAt = &now
		r.save(j.ctx, failed)
		return nil, ErrQueueFull
	}
}

// RunInline runs an immediate import on the caller's goroutine and records
// it like any other job. A file that cannot be read returns a
// *PipelineFatalError alongside the Failed status.
func (r *JobRunner) RunInline(ctx context.Context, fileName string, source RowSource, spec FieldSpec) (JobStatus, error) {
	j := r.newJob(ctx, ModeImmediate, fileName, source, spec)
	r.save(j.ctx, j.status)
	return r.execute(j)
}

// Queued returns the number of jobs waiting for a worker.
func (r *JobRunner) Queued() int {
	return len(r.queue)
}

// Shutdown stops accepting jobs and waits for queued and running jobs to
// finish, or for ctx to expire.
func (r *JobRunner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("import jobs still running: %w", ctx.Err())
	}
}

func (r *JobRunner) newJob(ctx context.Context, mode Mode, fileName string, source RowSource, spec FieldSpec) *job {
	id := uuid.NewString()
	jobCtx := context.WithoutCancel(ctx)
	jobCtx = logging.WithLogger(jobCtx, logging.WithFields(jobCtx, "job_id", id, "file", fileName, "mode", mode))

	return &job{
		ctx: jobCtx,
		status: JobStatus{
			ID:        id,
			Mode:      mode,
			FileName:  fileName,
			State:     JobPending,
			CreatedAt: time.Now(),
		},
		source: source,
		spec:   spec,
		done:   make(chan struct{}),
	}
}

func (r *JobRunner) worker() {
	defer r.wg.Done()
	for j := range r.queue {
		_, _ = r.execute(j)
	}
}

// execute runs one job to a terminal state. A panic anywhere in the batch
// is recovered and recorded as Failed.
func (r *JobRunner) execute(j *job) (status JobStatus, err error) {
	ctx := j.ctx
	logger := logging.FromContext(ctx)
	status = j.status

	defer func() {
		if p := recover(); p != nil {
			logger.Error("import job panicked", "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("internal error during import: %v", p)
			status.State = JobFailed
			status.Error = err.Error()
			status.Summary = nil
			now := time.Now()
			status.FinishedAt = &now
		}
		r.finish(j, status)
	}()

	started := time.Now()
	status.State = JobRunning
	status.StartedAt = &started
	r.save(ctx, status)
	logger.Info("import job started")

	rows, srcErr := j.source(ctx)
	if srcErr != nil {
		err = &PipelineFatalError{FileName: status.FileName, Err: srcErr}
		status.State = JobFailed
		status.Error = err.Error()
		finished := time.Now()
		status.FinishedAt = &finished
		logger.Error("import job failed", "error", err)
		return status, err
	}

	summary := r.importer.Run(ctx, rows, j.spec)
	status.Summary = &summary
	status.State = JobCompleted
	if summary.Rejected > 0 {
		status.State = JobCompletedWithRejections
	}
	finished := time.Now()
	status.FinishedAt = &finished

	logger.Info("import job finished",
		"state", status.State,
		"created", summary.Created,
		"rejected", summary.Rejected,
		"duration_ms", finished.Sub(started).Milliseconds(),
	)
	return status, nil
}

// finish records the terminal state and releases waiters, once per job.
func (r *JobRunner) finish(j *job, status JobStatus) {
	j.once.Do(func() {
		j.final = status
		r.save(j.ctx, status)
		close(j.done)
	})
}

// save writes status, logging rather than failing the job when the store
// is unavailable.
func (r *JobRunner) save(ctx context.Context, status JobStatus) {
	if err := r.store.Save(ctx, status); err != nil {
		logging.FromContext(ctx).Error("failed to record import job status",
			"state", status.State,
			"error", err,
		)
	}
}

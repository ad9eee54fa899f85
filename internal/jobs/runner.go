// Package jobs runs translation requests asynchronously. One job is one call
// to the synchronous translation pipeline.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vivatura/translator/internal/cache"
	"github.com/vivatura/translator/internal/metrics"
	"github.com/vivatura/translator/internal/store"
	"github.com/vivatura/translator/internal/translation"
	"github.com/vivatura/translator/pkg/models"
)

// StatusTTL is how long the job status mirror lives in the cache.
const StatusTTL = 30 * time.Minute

// ErrInvalidRequest is returned by Enqueue for requests that cannot be run.
var ErrInvalidRequest = errors.New("invalid job request")

// Orchestrator is the part of translation.Service the runner drives.
type Orchestrator interface {
	TranslateProduct(ctx context.Context, productID uuid.UUID, targets []uuid.UUID, set translation.Settings) (*translation.EntityResult, error)
	TranslateCmsPage(ctx context.Context, pageID uuid.UUID, targets []uuid.UUID, set translation.Settings) (*translation.EntityResult, error)
	TranslateSnippetSet(ctx context.Context, sourceSetID, targetSetID uuid.UUID, snippetIDs []uuid.UUID, set translation.Settings) (*translation.BatchResult, error)
}

// Request describes one job. EntityID is the product, CMS page or source
// snippet set. Snippet set jobs use TargetSetID and SnippetIDs instead of
// TargetLanguageIDs.
type Request struct {
	Type              string
	EntityID          uuid.UUID
	TargetLanguageIDs []uuid.UUID
	TargetSetID       uuid.UUID
	SnippetIDs        []uuid.UUID
	// OverwriteExisting overrides the configured policy when set.
	OverwriteExisting *bool
}

// params is the persisted form of the request fields not covered by job columns.
type params struct {
	TargetSetID       *uuid.UUID  `json:"target_set_id,omitempty"`
	SnippetIDs        []uuid.UUID `json:"snippet_ids,omitempty"`
	OverwriteExisting *bool       `json:"overwrite_existing,omitempty"`
}

func (r Request) validate() error {
	if r.EntityID == uuid.Nil {
		return fmt.Errorf("%w: entity id is required", ErrInvalidRequest)
	}
	switch r.Type {
	case models.JobTypeProduct, models.JobTypeCmsPage:
		if len(r.TargetLanguageIDs) == 0 {
			return fmt.Errorf("%w: at least one target language is required", ErrInvalidRequest)
		}
	case models.JobTypeSnippetSet:
		if r.TargetSetID == uuid.Nil {
			return fmt.Errorf("%w: target snippet set is required", ErrInvalidRequest)
		}
		if r.TargetSetID == r.EntityID {
			return fmt.Errorf("%w: source and target snippet set are the same", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown job type %q", ErrInvalidRequest, r.Type)
	}
	return nil
}

// Runner creates jobs and executes them in background goroutines.
type Runner struct {
	store    store.JobStore
	cache    cache.Cache
	svc      Orchestrator
	settings translation.Settings

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a Runner. settings is the default per-call configuration.
func NewRunner(st store.JobStore, ca cache.Cache, svc Orchestrator, settings translation.Settings) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:    st,
		cache:    ca,
		svc:      svc,
		settings: settings,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Enqueue creates a pending job and dispatches it. The job is returned
// without waiting for the translation.
func (r *Runner) Enqueue(ctx context.Context, req Request) (*models.Job, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	p := params{SnippetIDs: req.SnippetIDs, OverwriteExisting: req.OverwriteExisting}
	if req.TargetSetID != uuid.Nil {
		p.TargetSetID = &req.TargetSetID
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding job params: %w", err)
	}

	now := time.Now().UTC()
	job := &models.Job{
		ID:                uuid.New(),
		Type:              req.Type,
		EntityID:          req.EntityID.String(),
		TargetLanguageIDs: req.TargetLanguageIDs,
		Params:            raw,
		Status:            models.JobStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := r.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}
	r.mirror(ctx, job.ID, models.JobStatusPending)

	r.wg.Add(1)
	go r.run(job, req)

	return job, nil
}

// Get returns the job with id.
func (r *Runner) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return r.store.GetJob(ctx, id)
}

// Status returns the job's status, reading the cache mirror first. cached
// reports whether the mirror answered. Terminal statuses read from the store
// are written back to the mirror.
func (r *Runner) Status(ctx context.Context, id uuid.UUID) (status string, cached bool, err error) {
	if r.cache != nil {
		s, found, err := r.cache.GetJobStatus(ctx, id)
		if err != nil {
			slog.Warn("reading job status mirror", "job_id", id, "error", err)
		} else if found {
			return s, true, nil
		}
	}

	job, err := r.store.GetJob(ctx, id)
	if err != nil {
		return "", false, err
	}
	if job.Terminal() {
		r.mirror(ctx, id, job.Status)
	}
	return job.Status, false, nil
}

// Statuses returns the jobs that exist among ids, keyed by id.
func (r *Runner) Statuses(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Job, error) {
	return r.store.GetJobs(ctx, ids)
}

// Wait blocks until every dispatched job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown waits for running jobs until ctx is done. Jobs still running then
// stop dispatching further chunks; their in-flight provider call completes.
func (r *Runner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}

// run executes one job. It recovers from panics and always leaves the job
// completed or failed.
func (r *Runner) run(job *models.Job, req Request) {
	defer r.wg.Done()

	ctx := r.ctx
	log := slog.With("job_id", job.ID, "type", job.Type, "entity_id", job.EntityID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in job", "error", rec)
			r.fail(job, fmt.Sprintf("panic: %v", rec))
		}
	}()

	// Fresh context for bookkeeping so a shutdown still records the outcome.
	bg := context.WithoutCancel(ctx)

	if err := r.store.UpdateJobStatus(bg, job.ID, models.JobStatusProcessing); err != nil {
		log.Error("marking job processing", "error", err)
		return
	}
	r.mirror(bg, job.ID, models.JobStatusProcessing)
	log.Info("job started")

	result, err := r.execute(ctx, req)
	if err != nil {
		log.Warn("job failed", "error", err)
		r.fail(job, err.Error())
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		r.fail(job, fmt.Sprintf("encoding result: %v", err))
		return
	}
	if err := r.store.UpdateJobStatus(bg, job.ID, models.JobStatusCompleted, store.WithResult(raw)); err != nil {
		log.Error("marking job completed", "error", err)
		return
	}
	r.mirror(bg, job.ID, models.JobStatusCompleted)
	metrics.RecordJob(job.Type, models.JobStatusCompleted)
	log.Info("job completed")
}

func (r *Runner) execute(ctx context.Context, req Request) (any, error) {
	set := r.settings
	if req.OverwriteExisting != nil {
		set.OverwriteExisting = *req.OverwriteExisting
	}

	switch req.Type {
	case models.JobTypeProduct:
		return r.svc.TranslateProduct(ctx, req.EntityID, req.TargetLanguageIDs, set)
	case models.JobTypeCmsPage:
		return r.svc.TranslateCmsPage(ctx, req.EntityID, req.TargetLanguageIDs, set)
	case models.JobTypeSnippetSet:
		return r.svc.TranslateSnippetSet(ctx, req.EntityID, req.TargetSetID, req.SnippetIDs, set)
	}
	return nil, fmt.Errorf("%w: unknown job type %q", ErrInvalidRequest, req.Type)
}

func (r *Runner) fail(job *models.Job, msg string) {
	ctx := context.WithoutCancel(r.ctx)
	raw, _ := json.Marshal(map[string]string{"error": msg})
	if err := r.store.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed, store.WithResult(raw)); err != nil {
		slog.Error("marking job failed", "job_id", job.ID, "error", err)
	}
	r.mirror(ctx, job.ID, models.JobStatusFailed)
	metrics.RecordJob(job.Type, models.JobStatusFailed)
}

func (r *Runner) mirror(ctx context.Context, id uuid.UUID, status string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetJobStatus(ctx, id, status, StatusTTL); err != nil {
		slog.Warn("mirroring job status", "job_id", id, "error", err)
	}
}

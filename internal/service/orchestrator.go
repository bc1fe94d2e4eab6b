package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lenslabs/paperlens/internal/model"
	"github.com/lenslabs/paperlens/internal/worker"
)

// JobStore persists job state across transitions. Implemented by the Mongo
// repository and by the in-memory store.
type JobStore interface {
	Create(ctx context.Context, job *model.Job) error
	SetRunning(ctx context.Context, jobID string) error
	SetDone(ctx context.Context, jobID string, result json.RawMessage) error
	SetError(ctx context.Context, jobID string, msg string) error
	Get(ctx context.Context, jobID string) (*model.Job, error)
}

// Orchestrator accepts job requests, records them as QUEUED and dispatches
// them to the worker pool. Each job is owned by exactly one worker after
// pickup; there are no automatic retries - a retry is a new submission.
type Orchestrator struct {
	store    JobStore
	pool     *worker.Pool
	executor *PipelineExecutor
}

// NewOrchestrator creates an orchestrator and wires it as the pool executor
func NewOrchestrator(store JobStore, pool *worker.Pool, executor *PipelineExecutor) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		pool:     pool,
		executor: executor,
	}
	pool.SetExecutor(o.execute)
	return o
}

// Start starts the underlying worker pool
func (o *Orchestrator) Start() {
	o.pool.Start()
}

// Stop drains and stops the underlying worker pool
func (o *Orchestrator) Stop() {
	o.pool.Stop()
}

// SubmitPipeline enqueues a paper-analysis job. The job is recorded as
// QUEUED before the id is returned, so a poll can never miss it.
func (o *Orchestrator) SubmitPipeline(ctx context.Context, req *model.PipelineRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return o.submit(ctx, worker.Job{
		ID:       uuid.New().String(),
		Kind:     model.KindPipeline,
		Pipeline: req,
	})
}

// SubmitFutureWork enqueues a future-work elaboration job
func (o *Orchestrator) SubmitFutureWork(ctx context.Context, req *model.FutureWorkRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return o.submit(ctx, worker.Job{
		ID:         uuid.New().String(),
		Kind:       model.KindFutureWork,
		FutureWork: req,
	})
}

// Poll retrieves the current state of a job
func (o *Orchestrator) Poll(ctx context.Context, jobID string) (*model.Job, error) {
	return o.store.Get(ctx, jobID)
}

func (o *Orchestrator) submit(ctx context.Context, job worker.Job) (string, error) {
	now := time.Now().UTC()
	record := &model.Job{
		ID:        job.ID,
		Kind:      job.Kind,
		Status:    model.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := o.store.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to record job: %w", err)
	}

	if err := o.pool.Submit(job); err != nil {
		// The job was recorded but will never run; make that visible.
		if storeErr := o.store.SetError(context.Background(), job.ID, "dispatch failed: "+err.Error()); storeErr != nil {
			slog.Error("Failed to mark undispatched job", "job_id", job.ID, "error", storeErr.Error())
		}
		return "", fmt.Errorf("failed to dispatch job: %w", err)
	}

	slog.Info("Job submitted", "job_id", job.ID, "kind", job.Kind)

	return job.ID, nil
}

// execute runs on a pool worker. All stage failures, including panics in a
// pipeline stage, end up recorded on the job so the worker survives to pull
// the next one.
func (o *Orchestrator) execute(ctx context.Context, job worker.Job) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in job execution", "job_id", job.ID, "panic", r)
			o.fail(job.ID, fmt.Sprintf("panic: %v", r))
		}
	}()

	if err := o.store.SetRunning(ctx, job.ID); err != nil {
		slog.Error("Failed to mark job running", "job_id", job.ID, "error", err.Error())
		return
	}

	slog.Info("Job started", "job_id", job.ID, "kind", job.Kind)
	start := time.Now()

	var payload interface{}
	var err error

	switch job.Kind {
	case model.KindPipeline:
		payload, err = o.executor.RunPipeline(ctx, job.Pipeline)
	case model.KindFutureWork:
		payload, err = o.executor.RunFutureWork(ctx, job.FutureWork)
	default:
		err = fmt.Errorf("unknown job kind: %s", job.Kind)
	}

	if err != nil {
		o.fail(job.ID, err.Error())
		slog.Warn("Job failed",
			"job_id", job.ID,
			"error", err.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return
	}

	result, err := json.Marshal(payload)
	if err != nil {
		o.fail(job.ID, "failed to serialize result: "+err.Error())
		return
	}

	if err := o.store.SetDone(ctx, job.ID, result); err != nil {
		slog.Error("Failed to mark job done", "job_id", job.ID, "error", err.Error())
		return
	}

	slog.Info("Job completed",
		"job_id", job.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (o *Orchestrator) fail(jobID, msg string) {
	if err := o.store.SetError(context.Background(), jobID, msg); err != nil {
		slog.Error("Failed to record job error", "job_id", jobID, "error", err.Error())
	}
}

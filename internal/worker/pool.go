package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lenslabs/paperlens/internal/model"
)

// Job is one queued unit of pipeline work. Exactly one of Pipeline or
// FutureWork is set, matching Kind.
type Job struct {
	ID         string
	Kind       model.JobKind
	Pipeline   *model.PipelineRequest
	FutureWork *model.FutureWorkRequest
}

// ExecutorFunc runs one job to completion. It owns the job's state
// transitions and must swallow its own failures; a returned panic would
// take the worker down.
type ExecutorFunc func(ctx context.Context, job Job)

// Pool manages a fixed set of worker goroutines pulling jobs from a shared
// queue. Jobs may complete out of submission order.
type Pool struct {
	workers    int
	jobs       chan Job
	executorFn ExecutorFunc
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewPool creates a new worker pool
func NewPool(workers int, jobQueueSize int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers: workers,
		jobs:    make(chan Job, jobQueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetExecutor sets the executor function that will process jobs
func (p *Pool) SetExecutor(fn ExecutorFunc) {
	p.executorFn = fn
}

// Start starts the worker pool
func (p *Pool) Start() {
	slog.Info("Starting worker pool", "workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop stops the worker pool gracefully, draining queued jobs first
func (p *Pool) Stop() {
	slog.Info("Stopping worker pool")

	close(p.jobs)
	p.wg.Wait()
	p.cancel()

	slog.Info("Worker pool stopped")
}

// Submit enqueues a job for execution
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		slog.Debug("Job submitted to worker pool",
			"job_id", job.ID,
			"kind", job.Kind,
		)
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// QueueLength returns the current number of jobs waiting in the queue
func (p *Pool) QueueLength() int {
	return len(p.jobs)
}

// worker is the worker goroutine that processes jobs
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	slog.Debug("Worker started", "worker_id", id)

	for job := range p.jobs {
		slog.Debug("Worker processing job",
			"worker_id", id,
			"job_id", job.ID,
			"kind", job.Kind,
		)

		p.executorFn(p.ctx, job)
	}

	slog.Debug("Worker stopped", "worker_id", id)
}

package model

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryJobStore is an in-memory job store. It backs tests and deployments
// that run without MongoDB; the durable implementation lives in
// internal/database.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryJobStore creates a new in-memory job store
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[string]*Job),
	}
}

// Create inserts a new job record
func (s *MemoryJobStore) Create(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

// SetRunning transitions a job to RUNNING
func (s *MemoryJobStore) SetRunning(ctx context.Context, jobID string) error {
	return s.update(jobID, func(j *Job) {
		j.Status = StatusRunning
	})
}

// SetDone transitions a job to DONE with its serialized result
func (s *MemoryJobStore) SetDone(ctx context.Context, jobID string, result json.RawMessage) error {
	return s.update(jobID, func(j *Job) {
		j.Status = StatusDone
		j.Result = result
	})
}

// SetError transitions a job to ERROR with the failure message
func (s *MemoryJobStore) SetError(ctx context.Context, jobID string, msg string) error {
	return s.update(jobID, func(j *Job) {
		j.Status = StatusError
		j.Error = msg
	})
}

// Get retrieves a job by id
func (s *MemoryJobStore) Get(ctx context.Context, jobID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

// DeleteFinishedBefore removes DONE/ERROR jobs last updated before the cutoff
func (s *MemoryJobStore) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, job := range s.jobs {
		if job.Finished() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryJobStore) update(jobID string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
	return nil
}

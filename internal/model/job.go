package model

import (
	"encoding/json"
	"errors"
	"time"
)

// JobStatus represents the lifecycle state of an async job.
// Transitions are monotonic: QUEUED -> RUNNING -> DONE | ERROR.
type JobStatus string

const (
	StatusQueued  JobStatus = "QUEUED"
	StatusRunning JobStatus = "RUNNING"
	StatusDone    JobStatus = "DONE"
	StatusError   JobStatus = "ERROR"
)

// JobKind identifies which pipeline a job runs
type JobKind string

const (
	KindPipeline   JobKind = "pipeline"    // optimize -> search -> fetch -> analyze
	KindFutureWork JobKind = "future_work" // ideas -> project -> code
)

// ErrJobNotFound is returned when polling a job id that was never submitted
var ErrJobNotFound = errors.New("job not found")

// Job represents one unit of asynchronous work with a polled status/result
type Job struct {
	ID        string          `json:"job_id" bson:"_id"`
	Kind      JobKind         `json:"kind" bson:"kind"`
	Status    JobStatus       `json:"status" bson:"status"`
	Result    json.RawMessage `json:"result,omitempty" bson:"result,omitempty"`
	Error     string          `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" bson:"updated_at"`
}

// Finished reports whether the job reached a terminal state
func (j *Job) Finished() bool {
	return j.Status == StatusDone || j.Status == StatusError
}

// PipelineRequest is the payload for a paper-analysis job
type PipelineRequest struct {
	Prompt      string   `json:"prompt"`
	MaxResults  int      `json:"max_results,omitempty"`
	SectionOnly bool     `json:"section_only,omitempty"`
	Questions   []string `json:"questions,omitempty"`
}

// Validate validates a pipeline request
func (r *PipelineRequest) Validate() error {
	if r.Prompt == "" {
		return errors.New("prompt is required")
	}
	return nil
}

// FutureWorkRequest is the payload for a future-work elaboration job.
// PriorResult carries the serialized result of a prior pipeline job;
// TargetPath points at the paper the elaboration should focus on.
type FutureWorkRequest struct {
	PriorResult  json.RawMessage `json:"prior_result"`
	TargetPath   string          `json:"target_path"`
	Choice       string          `json:"choice,omitempty"`
	GenerateCode bool            `json:"generate_code,omitempty"`
}

// Validate validates a future-work request
func (r *FutureWorkRequest) Validate() error {
	if len(r.PriorResult) == 0 {
		return errors.New("prior_result is required")
	}
	if r.TargetPath == "" {
		return errors.New("target_path is required")
	}
	if r.GenerateCode && r.Choice == "" {
		return errors.New("generate_code requires a choice")
	}
	return nil
}

// AnalysisResult is the result payload of a pipeline job
type AnalysisResult struct {
	Query    string            `json:"query"`
	Answers  map[string]string `json:"answers"`
	PaperIDs []string          `json:"paper_ids"`
	PDFPaths []string          `json:"pdf_paths"`
}

// FutureWorkResult is the result payload of a future-work job.
// Project and Code stay empty when the caller stops at an earlier stage.
type FutureWorkResult struct {
	Ideas   string `json:"ideas"`
	Project string `json:"project"`
	Code    string `json:"code"`
}

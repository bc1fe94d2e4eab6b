package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lenslabs/paperlens/internal/model"
	"github.com/lenslabs/paperlens/internal/service"
)

// JobHandler handles job submission and polling
type JobHandler struct {
	orchestrator *service.Orchestrator
}

// NewJobHandler creates a new job handler
func NewJobHandler(orchestrator *service.Orchestrator) *JobHandler {
	return &JobHandler{
		orchestrator: orchestrator,
	}
}

// SubmitResponse represents a job submission response
type SubmitResponse struct {
	JobID  string          `json:"job_id"`
	Status model.JobStatus `json:"status"`
}

// JobResponse represents a polled job
type JobResponse struct {
	JobID  string          `json:"job_id"`
	Status model.JobStatus `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// SubmitPipeline handles POST /api/v1/jobs/pipeline
func (h *JobHandler) SubmitPipeline(w http.ResponseWriter, r *http.Request) {
	var req model.PipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	jobID, err := h.orchestrator.SubmitPipeline(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, SubmitResponse{
		JobID:  jobID,
		Status: model.StatusQueued,
	})
}

// SubmitFutureWork handles POST /api/v1/jobs/future
func (h *JobHandler) SubmitFutureWork(w http.ResponseWriter, r *http.Request) {
	var req model.FutureWorkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	jobID, err := h.orchestrator.SubmitFutureWork(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, SubmitResponse{
		JobID:  jobID,
		Status: model.StatusQueued,
	})
}

// Poll handles GET /api/v1/jobs/{id}
func (h *JobHandler) Poll(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	if jobID == "" || strings.Contains(jobID, "/") {
		writeError(w, http.StatusBadRequest, "Invalid job id")
		return
	}

	job, err := h.orchestrator.Poll(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, JobResponse{
		JobID:  job.ID,
		Status: job.Status,
		Result: job.Result,
		Error:  job.Error,
	})
}

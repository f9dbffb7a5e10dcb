package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"content-orchestrator/core/executor"
	"content-orchestrator/core/models"
	"content-orchestrator/core/spec"
	"content-orchestrator/core/tracker"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	tracker  *tracker.Tracker
	executor *executor.Executor
	log      *logrus.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(tr *tracker.Tracker, exec *executor.Executor, log *logrus.Logger) *JobHandler {
	return &JobHandler{
		tracker:  tr,
		executor: exec,
		log:      log,
	}
}

// SubmitJobRequest represents the request to submit a job. Either a YAML
// workflow spec or an inline input is accepted; the spec wins when both are
// present.
type SubmitJobRequest struct {
	SpecYAML string           `json:"spec_yaml,omitempty"`
	Input    *models.JobInput `json:"input,omitempty"`
}

// SubmitJobResponse represents the response after submitting a job
type SubmitJobResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitJob handles POST /v1/jobs
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var input models.JobInput
	switch {
	case req.SpecYAML != "":
		parsed, err := spec.ParseWorkflowSpec(req.SpecYAML)
		if err != nil {
			http.Error(w, "Invalid workflow spec: "+err.Error(), http.StatusBadRequest)
			return
		}
		input = parsed
	case req.Input != nil:
		if req.Input.OperationType == "" {
			http.Error(w, "input.operation_type is required", http.StatusBadRequest)
			return
		}
		input = *req.Input
	default:
		http.Error(w, "Either spec_yaml or input is required", http.StatusBadRequest)
		return
	}

	jobID, err := h.tracker.Submit(r.Context(), input)
	if err != nil {
		http.Error(w, "Failed to create job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Hand off for execution; submission never waits on the workflow
	h.executor.Enqueue(jobID)

	view, err := h.tracker.Get(jobID)
	if err != nil {
		http.Error(w, "Failed to fetch job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := SubmitJobResponse{
		ID:        view.ID,
		Status:    string(view.Status),
		CreatedAt: view.CreatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// GetJob handles GET /v1/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	view, err := h.tracker.Get(jobID)
	if err != nil {
		writeTrackerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

// ListJobs handles GET /v1/jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	statusParam := r.URL.Query().Get("status")
	limit := 50 // Default limit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		fmt.Sscanf(limitParam, "%d", &limit)
	}

	var status *models.JobStatus
	if statusParam != "" {
		s := models.JobStatus(statusParam)
		status = &s
	}

	views := h.tracker.List(status, limit)

	items := make([]map[string]interface{}, len(views))
	for i, view := range views {
		items[i] = map[string]interface{}{
			"id":             view.ID,
			"status":         view.Status,
			"operation_type": view.Input.OperationType,
			"created_at":     view.CreatedAt,
			"updated_at":     view.UpdatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"items": items,
	})
}

// CancelJobRequest carries an optional cancellation reason
type CancelJobRequest struct {
	Reason string `json:"reason"`
}

// CancelJob handles POST /v1/jobs/{id}/cancel
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	var req CancelJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Reason == "" {
		req.Reason = "cancelled by user"
	}

	if err := h.tracker.Cancel(r.Context(), jobID, req.Reason); err != nil {
		writeTrackerError(w, err)
		return
	}

	// Tear down the pipeline if it is mid-flight
	if h.executor.Interrupt(jobID) {
		h.log.Infof("Interrupted running pipeline for job %s", jobID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     jobID,
		"status": models.JobStatusCancelled,
	})
}

// GetJobEvents handles GET /v1/jobs/{id}/events
func (h *JobHandler) GetJobEvents(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	view, err := h.tracker.Get(jobID)
	if err != nil {
		writeTrackerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"items": view.Events,
	})
}

// writeTrackerError maps tracker error types onto HTTP status codes
func writeTrackerError(w http.ResponseWriter, err error) {
	switch {
	case tracker.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case tracker.IsInvalidTransition(err):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

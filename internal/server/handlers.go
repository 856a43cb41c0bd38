package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/job-fit-analyzer/internal/db"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// analyzeRequest is the body of POST /users/{id}/analyses
type analyzeRequest struct {
	JobID     string `json:"job_id" validate:"required,uuid4"`
	ProfileID string `json:"profile_id,omitempty" validate:"omitempty,uuid4"`
}

// runResponse is the wire form of an analysis run
type runResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	JobID       string  `json:"job_id"`
	ProfileID   *string `json:"profile_id,omitempty"`
	Status      string  `json:"status"`
	StartedAt   *string `json:"started_at,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// createRunResponse is the intake response: the run plus whether an
// existing active run was reused instead of queueing a new one
type createRunResponse struct {
	runResponse
	Reused bool `json:"reused"`
}

// resultResponse is the wire form of one report section
type resultResponse struct {
	Section   string          `json:"section"`
	Content   json.RawMessage `json:"content"`
	UpdatedAt string          `json:"updated_at"`
}

func toRunResponse(run *db.AnalysisRun) runResponse {
	resp := runResponse{
		ID:        run.ID.String(),
		UserID:    run.UserID.String(),
		JobID:     run.JobID.String(),
		Status:    run.Status,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
	}
	if run.ProfileID != nil {
		p := run.ProfileID.String()
		resp.ProfileID = &p
	}
	if run.StartedAt != nil {
		t := run.StartedAt.Format(time.RFC3339)
		resp.StartedAt = &t
	}
	if run.CompletedAt != nil {
		t := run.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &t
	}
	return resp
}

// handleCreateAnalysis queues a new analysis run, or returns the active
// run already covering the same job and profile.
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, fmt.Sprintf("validation failed: %v", err))
		return
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid job id")
		return
	}

	var profileID *uuid.UUID
	if req.ProfileID != "" {
		p, err := uuid.Parse(req.ProfileID)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, "invalid profile id")
			return
		}
		profileID = &p
	}

	run, reused, err := s.intake.CreateOrReuseRun(r.Context(), userID, jobID, profileID)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to create analysis run")
		return
	}

	// Intake only queues work; 202 either way, with reused telling the
	// caller whether an existing active run already covers the request
	writeJSON(w, http.StatusAccepted, createRunResponse{
		runResponse: toRunResponse(run),
		Reused:      reused,
	})
}

// handleGetAnalysis returns a single run by id
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid analysis id")
		return
	}

	run, err := s.reader.GetRun(r.Context(), runID)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to fetch analysis run")
		return
	}
	if run == nil {
		errorResponse(w, http.StatusNotFound, "analysis run not found")
		return
	}

	writeJSON(w, http.StatusOK, toRunResponse(run))
}

// handleGetAnalysisResults returns whatever report sections a run has
// produced so far. Completed sections are visible even while the run
// is still in progress or has failed partway.
func (s *Server) handleGetAnalysisResults(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid analysis id")
		return
	}

	run, err := s.reader.GetRun(r.Context(), runID)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to fetch analysis run")
		return
	}
	if run == nil {
		errorResponse(w, http.StatusNotFound, "analysis run not found")
		return
	}

	results, err := s.reader.ListResults(r.Context(), runID)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to fetch analysis results")
		return
	}

	sections := make([]resultResponse, 0, len(results))
	for _, res := range results {
		sections = append(sections, resultResponse{
			Section:   res.Section,
			Content:   res.Content,
			UpdatedAt: res.UpdatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run":      toRunResponse(run),
		"sections": sections,
	})
}

// handleListAnalyses returns a user's runs, newest first
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid user id")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			errorResponse(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	runs, err := s.reader.ListRunsByUser(r.Context(), userID, limit)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to list analysis runs")
		return
	}

	out := make([]runResponse, 0, len(runs))
	for i := range runs {
		out = append(out, toRunResponse(&runs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": out})
}

// handleHealth reports liveness and database reachability
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

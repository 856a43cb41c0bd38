package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run status constants. Terminal statuses are never changed once set.
const (
	RunStatusQueued    = "queued"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// AnalysisRun represents one user-initiated request to analyze a (job, profile) pair
type AnalysisRun struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	JobID       uuid.UUID  `json:"job_id"`
	ProfileID   *uuid.UUID `json:"profile_id,omitempty"` // nil means "analyze against no profile"
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Terminal reports whether the run has reached a terminal status
func (r *AnalysisRun) Terminal() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}

// AnalysisResult represents one computed section of a run's report
type AnalysisResult struct {
	RunID     uuid.UUID       `json:"run_id"`
	Section   string          `json:"section"`
	Content   json.RawMessage `json:"content"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Job represents a saved job posting (read-only to the analysis core)
type Job struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Location     string    `json:"location,omitempty"`
	Seniority    string    `json:"seniority,omitempty"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements,omitempty"`
	Skills       []string  `json:"skills,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile represents a candidate profile (read-only to the analysis core)
type Profile struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Headline        string    `json:"headline,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	Location        string    `json:"location,omitempty"`
	YearsExperience int       `json:"years_experience,omitempty"`
	Skills          []string  `json:"skills,omitempty"`
	Experience      string    `json:"experience,omitempty"`
	Education       string    `json:"education,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Package worker runs the polling loop that drains queued analysis runs.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-fit-analyzer/internal/analysis"
	"github.com/jonathan/job-fit-analyzer/internal/db"
)

// DefaultPollInterval is the idle sleep between loop iterations
const DefaultPollInterval = 5 * time.Second

// RunStore provides the run-claiming and finalization operations the worker
// relies on. ClaimNextQueued must be atomic: two workers can never both
// transition the same run from queued to running.
type RunStore interface {
	ClaimNextQueued(ctx context.Context) (*db.AnalysisRun, error)
	FinalizeRun(ctx context.Context, runID uuid.UUID, status string, completedAt time.Time) error
	RequeueStuck(ctx context.Context, olderThan time.Duration) (int, error)
}

// ResultStore persists computed report sections keyed by (run, section)
type ResultStore interface {
	UpsertResult(ctx context.Context, runID uuid.UUID, section string, content json.RawMessage) error
}

// SectionComputer computes one section of a run's report
type SectionComputer interface {
	ComputeSection(ctx context.Context, jobID uuid.UUID, profileID *uuid.UUID, section string) (json.RawMessage, error)
}

// Config holds worker tuning options
type Config struct {
	// PollInterval is the idle sleep between iterations; defaults to
	// DefaultPollInterval when zero
	PollInterval time.Duration
	// MaxRunningAge, when positive, requeues runs stuck in running longer
	// than this before each claim. Zero disables reclaiming: a run left
	// running by a crashed worker then stays running until operator action.
	MaxRunningAge time.Duration
}

// Worker claims one queued analysis run at a time, computes the report
// sections sequentially, and reconciles the run's terminal status under
// partial failure. Safe to run as multiple instances against one queue.
type Worker struct {
	runs     RunStore
	results  ResultStore
	computer SectionComputer
	cfg      Config
}

// New creates a worker over the given stores and section computer
func New(runs RunStore, results ResultStore, computer SectionComputer, cfg Config) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Worker{
		runs:     runs,
		results:  results,
		computer: computer,
		cfg:      cfg,
	}
}

// RunOnce performs one claim-execute-finalize cycle and reports whether a run
// was claimed. It never sleeps; drivers own the idle pacing. Section and
// persistence failures are absorbed into the run's terminal status and never
// returned; only claim failures surface as errors.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	if w.cfg.MaxRunningAge > 0 {
		n, err := w.runs.RequeueStuck(ctx, w.cfg.MaxRunningAge)
		if err != nil {
			log.Printf("worker: failed to requeue stuck runs: %v", err)
		} else if n > 0 {
			log.Printf("worker: requeued %d stuck run(s)", n)
		}
	}

	run, err := w.runs.ClaimNextQueued(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to claim run: %w", err)
	}
	if run == nil {
		return false, nil
	}

	log.Printf("worker: claimed run %s (job %s)", run.ID, run.JobID)
	w.execute(ctx, run)
	return true, nil
}

// execute computes all sections for a claimed run and finalizes its status
func (w *Worker) execute(ctx context.Context, run *db.AnalysisRun) {
	anyFailed := false

	for _, section := range analysis.Sections {
		content, err := w.computer.ComputeSection(ctx, run.JobID, run.ProfileID, section)
		if err != nil {
			// A single section's failure never aborts the run early;
			// partial reports are better than none.
			log.Printf("worker: run %s section %s failed: %v", run.ID, section, err)
			anyFailed = true
			continue
		}

		if err := w.results.UpsertResult(ctx, run.ID, section, content); err != nil {
			log.Printf("worker: run %s section %s not persisted: %v", run.ID, section, err)
			anyFailed = true
			continue
		}
	}

	status := db.RunStatusCompleted
	if anyFailed {
		status = db.RunStatusFailed
	}

	if err := w.runs.FinalizeRun(ctx, run.ID, status, time.Now().UTC()); err != nil {
		// The run stays in running, which requires operator intervention;
		// there is no state it can safely be moved to from here.
		log.Printf("worker: run %s finalize to %s failed, run left running: %v", run.ID, status, err)
		return
	}

	log.Printf("worker: run %s finished with status %s", run.ID, status)
}

// Run executes the claim-execute-finalize cycle forever, sleeping the poll
// interval after every iteration whether or not a run was claimed. Returns
// when ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	log.Printf("worker: polling every %s", w.cfg.PollInterval)
	for {
		if _, err := w.RunOnce(ctx); err != nil {
			log.Printf("worker: %v", err)
		}
		if err := w.idle(ctx); err != nil {
			return err
		}
	}
}

// RunN executes up to n iterations, for scheduler-style invocations that
// must return instead of looping forever. The idle sleep applies after each
// iteration, matching the perpetual driver's pacing.
func (w *Worker) RunN(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if _, err := w.RunOnce(ctx); err != nil {
			log.Printf("worker: %v", err)
		}
		if i == n-1 {
			break
		}
		if err := w.idle(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) idle(ctx context.Context) error {
	timer := time.NewTimer(w.cfg.PollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

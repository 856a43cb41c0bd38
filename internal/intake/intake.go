// Package intake creates or reuses analysis runs for (user, job, profile) requests.
package intake

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/job-fit-analyzer/internal/db"
)

// RunStore provides the run lookup and insertion operations intake relies on
type RunStore interface {
	FindActiveRun(ctx context.Context, userID, jobID uuid.UUID, profileID *uuid.UUID) (*db.AnalysisRun, error)
	InsertQueued(ctx context.Context, userID, jobID uuid.UUID, profileID *uuid.UUID) (*db.AnalysisRun, error)
	InsertQueuedUnique(ctx context.Context, userID, jobID uuid.UUID, profileID *uuid.UUID) (*db.AnalysisRun, bool, error)
}

// Options controls intake behavior
type Options struct {
	// UniqueActiveRuns routes inserts through the partial unique index on
	// active (user, job, profile) triples. Without it the lookup-then-insert
	// sequence is not transactionally safe: two concurrent callers can both
	// observe no active run and both insert. Requires the index documented
	// on db.InsertQueuedUnique; it keys on COALESCE(profile_id, nil-uuid)
	// so no-profile runs are also covered.
	UniqueActiveRuns bool
}

// Intake dedups run requests: one active run per (user, job, profile) triple
type Intake struct {
	runs RunStore
	opts Options
}

// New creates an intake over the given run store
func New(runs RunStore, opts Options) *Intake {
	return &Intake{runs: runs, opts: opts}
}

// CreateOrReuseRun returns the existing queued or running run for the triple,
// or inserts a new queued run. reused=true means no insert happened.
// profileID may be nil: analysis against "no profile" is a valid request.
func (i *Intake) CreateOrReuseRun(ctx context.Context, userID, jobID uuid.UUID, profileID *uuid.UUID) (*db.AnalysisRun, bool, error) {
	existing, err := i.runs.FindActiveRun(ctx, userID, jobID, profileID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up active run: %w", err)
	}
	if existing != nil {
		return existing, true, nil
	}

	if i.opts.UniqueActiveRuns {
		run, inserted, err := i.runs.InsertQueuedUnique(ctx, userID, jobID, profileID)
		if err != nil {
			return nil, false, err
		}
		if !inserted {
			// Lost the race: a concurrent caller created the active run
			winner, err := i.runs.FindActiveRun(ctx, userID, jobID, profileID)
			if err != nil {
				return nil, false, fmt.Errorf("failed to look up active run: %w", err)
			}
			if winner == nil {
				// The winner finished between the conflict and our lookup
				return nil, false, fmt.Errorf("active run for user %s job %s vanished during intake", userID, jobID)
			}
			return winner, true, nil
		}
		return run, false, nil
	}

	run, err := i.runs.InsertQueued(ctx, userID, jobID, profileID)
	if err != nil {
		return nil, false, err
	}
	return run, false, nil
}

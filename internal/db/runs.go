package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const runColumns = `id, user_id, job_id, profile_id, status, started_at, completed_at, created_at`

func scanRun(row pgx.Row) (*AnalysisRun, error) {
	var run AnalysisRun
	err := row.Scan(&run.ID, &run.UserID, &run.JobID, &run.ProfileID,
		&run.Status, &run.StartedAt, &run.CompletedAt, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// InsertQueued creates a new analysis run in the queued state
func (db *DB) InsertQueued(ctx context.Context, userID, jobID uuid.UUID, profileID *uuid.UUID) (*AnalysisRun, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`INSERT INTO analysis_runs (user_id, job_id, profile_id, status)
		 VALUES ($1, $2, $3, 'queued')
		 RETURNING `+runColumns,
		userID, jobID, profileID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// nilProfileKey stands in for a NULL profile_id in the active-runs unique
// index. A nulls-distinct unique index never conflicts on NULL, so indexing
// the raw column would leave no-profile runs outside the race closure.
const nilProfileKey = "00000000-0000-0000-0000-000000000000"

// InsertQueuedUnique creates a queued run, relying on a partial unique index
// over active runs to close the lookup/insert race. Returns inserted=false
// when a concurrent active run won the race. Requires:
//
//	CREATE UNIQUE INDEX analysis_runs_active_unique
//	  ON analysis_runs (user_id, job_id, COALESCE(profile_id, '00000000-0000-0000-0000-000000000000'::uuid))
//	  WHERE status IN ('queued', 'running');
func (db *DB) InsertQueuedUnique(ctx context.Context, userID, jobID uuid.UUID, profileID *uuid.UUID) (*AnalysisRun, bool, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`INSERT INTO analysis_runs (user_id, job_id, profile_id, status)
		 VALUES ($1, $2, $3, 'queued')
		 ON CONFLICT (user_id, job_id, COALESCE(profile_id, '`+nilProfileKey+`'::uuid))
		 WHERE status IN ('queued', 'running')
		 DO NOTHING
		 RETURNING `+runColumns,
		userID, jobID, profileID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to create run: %w", err)
	}
	return run, true, nil
}

// FindActiveRun returns the queued or running run for a (user, job, profile)
// triple, or nil if none exists. profileID nil matches runs with no profile.
func (db *DB) FindActiveRun(ctx context.Context, userID, jobID uuid.UUID, profileID *uuid.UUID) (*AnalysisRun, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`SELECT `+runColumns+`
		 FROM analysis_runs
		 WHERE user_id = $1 AND job_id = $2 AND profile_id IS NOT DISTINCT FROM $3
		   AND status IN ('queued', 'running')
		 ORDER BY created_at
		 LIMIT 1`,
		userID, jobID, profileID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active run: %w", err)
	}
	return run, nil
}

// ClaimNextQueued atomically claims one queued run and transitions it to
// running, stamping started_at. Returns nil if no run is queued. The inner
// SKIP LOCKED select guarantees two workers never claim the same run.
func (db *DB) ClaimNextQueued(ctx context.Context) (*AnalysisRun, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`UPDATE analysis_runs
		 SET status = 'running', started_at = NOW()
		 WHERE id = (
		     SELECT id FROM analysis_runs
		     WHERE status = 'queued'
		     ORDER BY created_at
		     FOR UPDATE SKIP LOCKED
		     LIMIT 1)
		 RETURNING `+runColumns,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim run: %w", err)
	}
	return run, nil
}

// FinalizeRun sets a terminal status and completed_at on a running run
func (db *DB) FinalizeRun(ctx context.Context, runID uuid.UUID, status string, completedAt time.Time) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE analysis_runs
		 SET status = $1, completed_at = $2
		 WHERE id = $3 AND status = 'running'`,
		status, completedAt, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run not in running state: %s", runID)
	}
	return nil
}

// RequeueStuck returns running runs older than olderThan to the queue so they
// become claimable again. Disabled unless the worker opts in.
func (db *DB) RequeueStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE analysis_runs
		 SET status = 'queued', started_at = NULL
		 WHERE status = 'running' AND started_at < NOW() - make_interval(secs => $1)`,
		olderThan.Seconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stuck runs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// GetRun retrieves an analysis run by ID, or nil if not found
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*AnalysisRun, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM analysis_runs WHERE id = $1`,
		runID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRunsByUser retrieves a user's most recent analysis runs
func (db *DB) ListRunsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]AnalysisRun, error) {
	if limit == 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+runColumns+`
		 FROM analysis_runs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []AnalysisRun
	for rows.Next() {
		var run AnalysisRun
		if err := rows.Scan(&run.ID, &run.UserID, &run.JobID, &run.ProfileID,
			&run.Status, &run.StartedAt, &run.CompletedAt, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

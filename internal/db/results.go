package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UpsertResult stores one section of a run's report. Re-running the same
// (run, section) pair overwrites rather than duplicates.
func (db *DB) UpsertResult(ctx context.Context, runID uuid.UUID, section string, content json.RawMessage) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO analysis_results (run_id, section, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, section) DO UPDATE SET content = $3, updated_at = NOW()`,
		runID, section, content,
	)
	if err != nil {
		return fmt.Errorf("failed to save result %s: %w", section, err)
	}
	return nil
}

// GetResult retrieves one section result for a run, or nil if not present
func (db *DB) GetResult(ctx context.Context, runID uuid.UUID, section string) (*AnalysisResult, error) {
	var result AnalysisResult
	err := db.pool.QueryRow(ctx,
		`SELECT run_id, section, content, updated_at
		 FROM analysis_results WHERE run_id = $1 AND section = $2`,
		runID, section,
	).Scan(&result.RunID, &result.Section, &result.Content, &result.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get result %s: %w", section, err)
	}
	return &result, nil
}

// ListResults retrieves all section results for a run. A run's full report is
// the union of these rows.
func (db *DB) ListResults(ctx context.Context, runID uuid.UUID) ([]AnalysisResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT run_id, section, content, updated_at
		 FROM analysis_results WHERE run_id = $1
		 ORDER BY section`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []AnalysisResult
	for rows.Next() {
		var result AnalysisResult
		if err := rows.Scan(&result.RunID, &result.Section, &result.Content, &result.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}
	return results, nil
}

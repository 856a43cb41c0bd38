package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetJob retrieves a saved job posting by ID, or nil if not found
func (db *DB) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	var job Job
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, title, company, COALESCE(location, ''), COALESCE(seniority, ''),
		        description, COALESCE(requirements, ''), skills, created_at
		 FROM jobs WHERE id = $1`,
		jobID,
	).Scan(&job.ID, &job.UserID, &job.Title, &job.Company, &job.Location, &job.Seniority,
		&job.Description, &job.Requirements, &job.Skills, &job.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// GetProfile retrieves a candidate profile by ID, or nil if not found
func (db *DB) GetProfile(ctx context.Context, profileID uuid.UUID) (*Profile, error) {
	var profile Profile
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, COALESCE(headline, ''), COALESCE(bio, ''), COALESCE(location, ''),
		        COALESCE(years_experience, 0), skills, COALESCE(experience, ''),
		        COALESCE(education, ''), created_at
		 FROM profiles WHERE id = $1`,
		profileID,
	).Scan(&profile.ID, &profile.UserID, &profile.Headline, &profile.Bio, &profile.Location,
		&profile.YearsExperience, &profile.Skills, &profile.Experience,
		&profile.Education, &profile.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

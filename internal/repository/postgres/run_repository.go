package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
	"github.com/Suko/forecaster-enterprise-sub006/internal/repository"
)

// RunRepository implements repository.RunRepository using PostgreSQL.
type RunRepository struct {
	db *Database
}

// NewRunRepository creates a new PostgreSQL forecast_runs repository.
func NewRunRepository(db *Database) repository.RunRepository {
	return &RunRepository{db: db}
}

// Create writes a new run in status "running".
func (r *RunRepository) Create(ctx context.Context, run *models.ForecastRun) error {
	query := `
		INSERT INTO forecast_runs (
			id, client_id, user_id, status, primary_model, include_baseline,
			run_all_methods, skip_persistence, training_end_date,
			prediction_length, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.GetDB().ExecContext(
		ctx,
		query,
		run.RunID,
		run.ClientID,
		run.UserID,
		run.Status,
		run.PrimaryModel,
		run.IncludeBaseline,
		run.RunAllMethods,
		run.SkipPersistence,
		run.TrainingEndDate,
		run.PredictionLength,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create forecast run: %w", err)
	}
	return nil
}

// Complete transitions a run to "completed".
func (r *RunRepository) Complete(ctx context.Context, runID uuid.UUID) error {
	return r.setStatus(ctx, runID, models.RunStatusCompleted)
}

// Fail transitions a run to "failed".
func (r *RunRepository) Fail(ctx context.Context, runID uuid.UUID) error {
	return r.setStatus(ctx, runID, models.RunStatusFailed)
}

func (r *RunRepository) setStatus(ctx context.Context, runID uuid.UUID, status models.RunStatus) error {
	query := `UPDATE forecast_runs SET status = $1 WHERE id = $2`
	_, err := r.db.GetDB().ExecContext(ctx, query, status, runID)
	if err != nil {
		return fmt.Errorf("failed to update forecast run status: %w", err)
	}
	return nil
}

// GetByID retrieves a run by id.
func (r *RunRepository) GetByID(ctx context.Context, runID uuid.UUID) (*models.ForecastRun, error) {
	query := `
		SELECT id, client_id, user_id, status, primary_model, include_baseline,
			run_all_methods, skip_persistence, training_end_date,
			prediction_length, created_at
		FROM forecast_runs
		WHERE id = $1
	`

	var run models.ForecastRun
	err := r.db.GetDB().GetContext(ctx, &run, query, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("forecast run not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get forecast run: %w", err)
	}
	return &run, nil
}

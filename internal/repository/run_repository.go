package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

// RunRepository persists forecast_runs rows and drives their lifecycle.
type RunRepository interface {
	// Create writes a new run in status "running".
	Create(ctx context.Context, run *models.ForecastRun) error

	// Complete transitions a run to "completed".
	Complete(ctx context.Context, runID uuid.UUID) error

	// Fail transitions a run to "failed". Used both when every item failed
	// and when a commit could not be made durable (PERSISTENCE_FAILURE).
	Fail(ctx context.Context, runID uuid.UUID) error

	// GetByID retrieves a run by id.
	GetByID(ctx context.Context, runID uuid.UUID) (*models.ForecastRun, error)
}

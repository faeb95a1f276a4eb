package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

// ResultFilter selects forecast_results rows for a read path.
type ResultFilter struct {
	RunID     *uuid.UUID
	ItemID    string
	Method    string
	StartDate *time.Time
	EndDate   *time.Time
}

// ResultRepository persists and queries forecast_results rows.
type ResultRepository interface {
	// AppendResults writes a batch of result rows for one run. All rows in
	// one call commit or roll back together; a failed commit leaves no
	// partial rows visible.
	AppendResults(ctx context.Context, rows []models.ForecastResult) error

	// Query returns result rows matching filter, ordered by
	// (item_id, forecast_date) ascending.
	Query(ctx context.Context, filter ResultFilter) ([]models.ForecastResult, error)

	// DistinctMethods returns every method with at least one result row for
	// itemID in the window, ignoring any run_id restriction. Method
	// discovery is never run-scoped.
	DistinctMethods(ctx context.Context, itemID string, start, end *time.Time) ([]string, error)

	// BackfillActuals idempotently overwrites actual_value on existing rows
	// for itemID at the given dates. It never creates rows. Returns the
	// number of rows updated.
	BackfillActuals(ctx context.Context, itemID string, observations []models.ActualObservation) (int, error)
}

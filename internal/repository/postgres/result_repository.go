package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
	"github.com/Suko/forecaster-enterprise-sub006/internal/repository"
)

// ResultRepository implements repository.ResultRepository using PostgreSQL.
type ResultRepository struct {
	db *Database
}

// NewResultRepository creates a new PostgreSQL forecast_results repository.
func NewResultRepository(db *Database) repository.ResultRepository {
	return &ResultRepository{db: db}
}

// AppendResults writes a batch of result rows inside one transaction.
func (r *ResultRepository) AppendResults(ctx context.Context, rows []models.ForecastResult) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO forecast_results (
			run_id, item_id, method, forecast_date, point_forecast, p10, p50, p90
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	for _, row := range rows {
		_, err := tx.ExecContext(
			ctx, query,
			row.RunID, row.ItemID, row.Method, row.ForecastDate,
			row.PointForecast, row.P10, row.P50, row.P90,
		)
		if err != nil {
			return fmt.Errorf("failed to append forecast result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit forecast results: %w", err)
	}
	return nil
}

// Query returns result rows matching filter, ordered by
// (item_id, forecast_date) ascending.
func (r *ResultRepository) Query(ctx context.Context, filter repository.ResultFilter) ([]models.ForecastResult, error) {
	var conditions []string
	var args []interface{}
	argN := 0

	add := func(cond string, val interface{}) {
		argN++
		conditions = append(conditions, fmt.Sprintf(cond, argN))
		args = append(args, val)
	}

	if filter.RunID != nil {
		add("run_id = $%d", *filter.RunID)
	}
	if filter.ItemID != "" {
		add("item_id = $%d", filter.ItemID)
	}
	if filter.Method != "" {
		add("method = $%d", filter.Method)
	}
	if filter.StartDate != nil {
		add("forecast_date >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("forecast_date <= $%d", *filter.EndDate)
	}

	query := `
		SELECT run_id, item_id, method, forecast_date, point_forecast, p10, p50, p90, actual_value
		FROM forecast_results
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY item_id ASC, forecast_date ASC"

	var rows []models.ForecastResult
	if err := r.db.GetDB().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query forecast results: %w", err)
	}
	return rows, nil
}

// DistinctMethods returns every method with result rows for itemID in the
// window, independent of any run_id.
func (r *ResultRepository) DistinctMethods(ctx context.Context, itemID string, start, end *time.Time) ([]string, error) {
	var conditions []string
	args := []interface{}{itemID}
	conditions = append(conditions, "item_id = $1")
	argN := 1

	if start != nil {
		argN++
		conditions = append(conditions, fmt.Sprintf("forecast_date >= $%d", argN))
		args = append(args, *start)
	}
	if end != nil {
		argN++
		conditions = append(conditions, fmt.Sprintf("forecast_date <= $%d", argN))
		args = append(args, *end)
	}

	query := `
		SELECT DISTINCT method FROM forecast_results
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY method ASC
	`

	var methods []string
	if err := r.db.GetDB().SelectContext(ctx, &methods, query, args...); err != nil {
		return nil, fmt.Errorf("failed to discover forecast methods: %w", err)
	}
	return methods, nil
}

// BackfillActuals idempotently overwrites actual_value on existing rows.
func (r *ResultRepository) BackfillActuals(ctx context.Context, itemID string, observations []models.ActualObservation) (int, error) {
	if len(observations) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE forecast_results
		SET actual_value = $1
		WHERE item_id = $2 AND forecast_date = $3
	`

	updated := 0
	for _, obs := range observations {
		res, err := tx.ExecContext(ctx, query, obs.ActualValue, itemID, obs.Date)
		if err != nil {
			return 0, fmt.Errorf("failed to backfill actual: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		updated += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit backfill: %w", err)
	}
	return updated, nil
}

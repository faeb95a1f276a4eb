package models

import (
	"github.com/google/uuid"
)

// ForecastResult is one stored (run, item, method, day) prediction row.
// Unique per (run_id, item_id, method, forecast_date); actual_value is
// nullable and is the only field backfill is allowed to mutate.
type ForecastResult struct {
	RunID         uuid.UUID `json:"run_id" db:"run_id"`
	ItemID        string    `json:"item_id" db:"item_id"`
	Method        string    `json:"method" db:"method"`
	ForecastDate  Date      `json:"forecast_date" db:"forecast_date"`
	PointForecast float64   `json:"point_forecast" db:"point_forecast"`
	P10           *float64  `json:"p10,omitempty" db:"p10"`
	P50           *float64  `json:"p50,omitempty" db:"p50"`
	P90           *float64  `json:"p90,omitempty" db:"p90"`
	ActualValue   *float64  `json:"actual_value,omitempty" db:"actual_value"`
}

// ActualObservation is one (date, value) pair supplied to the backfill
// endpoint for a single item.
type ActualObservation struct {
	Date        Date    `json:"date"`
	ActualValue float64 `json:"actual_value"`
}

// MethodQuality is the per-method scorecard returned by the quality query.
type MethodQuality struct {
	Method           string   `json:"method"`
	PredictionsCount int      `json:"predictions_count"`
	ActualsCount     int      `json:"actuals_count"`
	MAPE             *float64 `json:"mape"`
	MAE              float64  `json:"mae"`
	RMSE             float64  `json:"rmse"`
	Bias             float64  `json:"bias"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a forecast run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal reports whether the status is one the run never leaves.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// ForecastRun is the header row of one generate-forecast request.
type ForecastRun struct {
	RunID            uuid.UUID  `json:"run_id" db:"id"`
	ClientID         string     `json:"client_id" db:"client_id"`
	UserID           *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Status           RunStatus  `json:"status" db:"status"`
	PrimaryModel     string     `json:"primary_model" db:"primary_model"`
	IncludeBaseline  bool       `json:"include_baseline" db:"include_baseline"`
	RunAllMethods    bool       `json:"run_all_methods" db:"run_all_methods"`
	SkipPersistence  bool       `json:"skip_persistence" db:"skip_persistence"`
	TrainingEndDate  *time.Time `json:"training_end_date,omitempty" db:"training_end_date"`
	PredictionLength int        `json:"prediction_length" db:"prediction_length"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// ForecastRequest is the decoded body of a generate-forecast call.
type ForecastRequest struct {
	ClientID         string     `json:"client_id"`
	UserID           *uuid.UUID `json:"user_id,omitempty"`
	ItemIDs          []string   `json:"item_ids"`
	PredictionLength int        `json:"prediction_length"`
	PrimaryModel     string     `json:"primary_model"`
	IncludeBaseline  *bool      `json:"include_baseline,omitempty"`
	RunAllMethods    bool       `json:"run_all_methods"`
	SkipPersistence  bool       `json:"skip_persistence"`
	TrainingEndDate  *Date      `json:"training_end_date,omitempty"`
}

// IncludeBaselineOrDefault returns the include_baseline flag, defaulting to
// true when the caller omitted it.
func (r ForecastRequest) IncludeBaselineOrDefault() bool {
	if r.IncludeBaseline == nil {
		return true
	}
	return *r.IncludeBaseline
}

// PredictionQuantiles is the optional p10/p50/p90 triple attached to a
// prediction. Methods that don't produce quantiles leave this unset; the
// engine fills it with the point forecast before returning to callers.
type PredictionQuantiles struct {
	P10 float64 `json:"p10"`
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
}

// Prediction is one forecasted day, as emitted by a Model and before
// persistence-row shaping.
type Prediction struct {
	Date          Date                 `json:"date"`
	PointForecast float64              `json:"point_forecast"`
	Quantiles     *PredictionQuantiles `json:"quantiles,omitempty"`
}

// ItemResult is one item's classification plus the predictions produced by
// the method that was actually used, as returned in the generate-forecast
// response.
type ItemResult struct {
	ItemID         string            `json:"item_id"`
	Classification SKUClassification `json:"classification"`
	MethodUsed     string            `json:"method_used"`
	Predictions    []Prediction      `json:"predictions"`
}

// ItemFailure is recorded against an item that could not be forecast.
type ItemFailure struct {
	ItemID  string `json:"item_id"`
	Method  string `json:"method,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ForecastResponse is the wire shape of a completed generate-forecast call.
type ForecastResponse struct {
	ForecastRunID uuid.UUID     `json:"forecast_run_id"`
	Status        RunStatus     `json:"status"`
	Items         []ItemResult  `json:"items"`
	Failures      []ItemFailure `json:"failures,omitempty"`
}

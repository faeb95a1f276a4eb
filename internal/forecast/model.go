// Package forecast implements the pluggable forecasting method contract
// and the registry/router that dispatches classifications to method ids.
package forecast

import (
	"time"

	"github.com/Suko/forecaster-enterprise-sub006/internal/forecasterr"
	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

// Registered method ids.
const (
	MethodChronos2 = "chronos-2"
	MethodMA7      = "statistical_ma7"
	MethodSBA      = "sba"
	MethodCroston  = "croston"
	MethodMinMax   = "min_max"
)

// Family tags a model by its numerical character. Methods are tagged
// variants behind one contract, not an inheritance hierarchy.
type Family string

const (
	FamilyMLFoundation            Family = "ml_foundation"
	FamilyStatisticalIntermittent Family = "statistical_intermittent"
	FamilyStatisticalSimple       Family = "statistical_simple"
	FamilyRuleBased               Family = "rule_based"
)

// state is a model instance's position in the uninitialized -> fitted ->
// predicted lifecycle.
type state int

const (
	stateUninitialized state = iota
	stateFitted
	statePredicted
)

// Model is the contract every forecasting method implements. fit may be a
// no-op for stateless/foundation methods; predict must not be called before
// fit.
type Model interface {
	// Fit prepares the model from a validated daily history. May be a
	// no-op.
	Fit(history []models.SeriesPoint) error

	// Predict produces one prediction per day of the horizon, starting the
	// day after trainingEndDate.
	Predict(horizonDays int, trainingEndDate time.Time) ([]models.Prediction, error)

	// Method returns the registered method id this instance implements.
	Method() string

	// Family returns the numerical-semantics tag for this method.
	Family() Family
}

// Constructor builds a fresh, unfitted Model instance.
type Constructor func() Model

// horizonDates returns horizonDays consecutive calendar days starting the
// day after trainingEndDate.
func horizonDates(trainingEndDate time.Time, horizonDays int) []models.Date {
	start := models.DateOf(trainingEndDate)
	dates := make([]models.Date, horizonDays)
	for i := 0; i < horizonDays; i++ {
		dates[i] = start.AddDays(i + 1)
	}
	return dates
}

// flatPredictions builds horizonDays predictions all equal to rate. It
// leaves quantiles unset; FillMissingQuantiles later sets them to the point
// forecast (the engine contract for methods that don't produce quantiles).
func flatPredictions(trainingEndDate time.Time, horizonDays int, rate float64) []models.Prediction {
	dates := horizonDates(trainingEndDate, horizonDays)
	preds := make([]models.Prediction, horizonDays)
	for i, d := range dates {
		preds[i] = models.Prediction{Date: d, PointForecast: rate}
	}
	return preds
}

// ClipNonNegative clips every point forecast and quantile in place to a
// floor of 0. No model output reaches storage negative.
func ClipNonNegative(preds []models.Prediction) {
	for i := range preds {
		if preds[i].PointForecast < 0 {
			preds[i].PointForecast = 0
		}
		if preds[i].Quantiles == nil {
			continue
		}
		q := preds[i].Quantiles
		if q.P10 < 0 {
			q.P10 = 0
		}
		if q.P50 < 0 {
			q.P50 = 0
		}
		if q.P90 < 0 {
			q.P90 = 0
		}
	}
}

// FillMissingQuantiles sets p10/p50/p90 to the point forecast wherever a
// model left quantiles unset.
func FillMissingQuantiles(preds []models.Prediction) {
	for i := range preds {
		if preds[i].Quantiles != nil {
			continue
		}
		pf := preds[i].PointForecast
		preds[i].Quantiles = &models.PredictionQuantiles{P10: pf, P50: pf, P90: pf}
	}
}

func errNotFitted(method string) error {
	return forecasterr.New(forecasterr.KindModelPredictFailure, method+": predict called before fit")
}

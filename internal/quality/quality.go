// Package quality computes per-method forecast accuracy scores (MAPE, MAE,
// RMSE, bias) from stored predictions and backfilled actuals.
package quality

import (
	"math"

	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

// pair is one (point_forecast, actual_value) observation with both values
// present.
type pair struct {
	forecast, actual float64
}

// Score computes the accuracy scorecard for one method from its result rows.
// Rows with a nil ActualValue count toward PredictionsCount but form no
// prediction/actual pair and are left out of every error metric. Zero actuals are excluded from MAPE but included in MAE, RMSE,
// and bias.
func Score(method string, rows []models.ForecastResult) models.MethodQuality {
	q := models.MethodQuality{Method: method, PredictionsCount: len(rows)}

	var pairs []pair
	for _, r := range rows {
		if r.ActualValue == nil {
			continue
		}
		pairs = append(pairs, pair{forecast: r.PointForecast, actual: *r.ActualValue})
	}
	q.ActualsCount = len(pairs)

	if len(pairs) == 0 {
		return q
	}

	var sumAbsErr, sumSqErr, sumBias float64
	var sumAbsPctErr float64
	nonZeroActuals := 0
	for _, p := range pairs {
		diff := p.forecast - p.actual
		sumAbsErr += math.Abs(diff)
		sumSqErr += diff * diff
		sumBias += diff
		if p.actual > 0 {
			sumAbsPctErr += math.Abs(diff) / p.actual
			nonZeroActuals++
		}
	}

	n := float64(len(pairs))
	q.MAE = sumAbsErr / n
	q.RMSE = math.Sqrt(sumSqErr / n)
	q.Bias = sumBias / n

	if nonZeroActuals > 0 {
		mape := 100 * sumAbsPctErr / float64(nonZeroActuals)
		q.MAPE = &mape
	}

	return q
}

// ScoreByMethod groups rows by method and scores each group independently.
// Method discovery (the set of keys returned) must come from the caller's
// query, not from this function: discovery ignores any run_id restriction
// while the rows themselves may be run-scoped, so historically-valid
// comparisons stay visible.
func ScoreByMethod(methods []string, rowsByMethod map[string][]models.ForecastResult) []models.MethodQuality {
	out := make([]models.MethodQuality, 0, len(methods))
	for _, m := range methods {
		out = append(out, Score(m, rowsByMethod[m]))
	}
	return out
}

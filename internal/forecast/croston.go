package forecast

import (
	"time"

	"github.com/Suko/forecaster-enterprise-sub006/internal/forecasterr"
	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

// DefaultCrostonAlpha is the smoothing constant used when none is
// configured.
const DefaultCrostonAlpha = 0.1

// Croston implements Croston's method for intermittent demand: non-zero
// demand sizes and the intervals between them are smoothed independently
// with a fixed alpha, and the forecast is the constant rate
// smoothed_size / smoothed_interval, flat across the horizon.
type Croston struct {
	Alpha float64

	state state
	rate  float64
}

// NewCroston constructs a fresh, unfitted Croston model with the default
// alpha. Use NewCrostonWithAlpha to override it.
func NewCroston() Model { return &Croston{Alpha: DefaultCrostonAlpha} }

// NewCrostonWithAlpha constructs a Croston model with a custom smoothing
// constant.
func NewCrostonWithAlpha(alpha float64) Model { return &Croston{Alpha: alpha} }

func (c *Croston) Method() string { return MethodCroston }
func (c *Croston) Family() Family { return FamilyStatisticalIntermittent }

func (c *Croston) Fit(history []models.SeriesPoint) error {
	if len(history) == 0 {
		return forecasterr.New(forecasterr.KindModelFitFailure, "croston requires a non-empty history")
	}
	size, interval := smoothDemandSizeAndInterval(history, c.Alpha)
	if interval == 0 {
		return forecasterr.New(forecasterr.KindModelFitFailure, "croston: series has no non-zero demand")
	}
	c.rate = size / interval
	c.state = stateFitted
	return nil
}

func (c *Croston) Predict(horizonDays int, trainingEndDate time.Time) ([]models.Prediction, error) {
	if c.state != stateFitted && c.state != statePredicted {
		return nil, errNotFitted(c.Method())
	}
	c.state = statePredicted
	return flatPredictions(trainingEndDate, horizonDays, c.rate), nil
}

// smoothDemandSizeAndInterval separates non-zero demand sizes and the
// inter-demand intervals, exponentially smoothing each with alpha. Shared
// by Croston and SBA, which differ only in the bias correction applied to
// the resulting rate.
func smoothDemandSizeAndInterval(history []models.SeriesPoint, alpha float64) (size, interval float64) {
	var sizes []float64
	var intervals []float64
	sinceLastDemand := 0

	for _, p := range history {
		sinceLastDemand++
		if p.UnitsSold > 0 {
			sizes = append(sizes, p.UnitsSold)
			intervals = append(intervals, float64(sinceLastDemand))
			sinceLastDemand = 0
		}
	}

	if len(sizes) == 0 {
		return 0, 0
	}

	smoothedSize := sizes[0]
	smoothedInterval := intervals[0]
	for i := 1; i < len(sizes); i++ {
		smoothedSize = alpha*sizes[i] + (1-alpha)*smoothedSize
		smoothedInterval = alpha*intervals[i] + (1-alpha)*smoothedInterval
	}

	return smoothedSize, smoothedInterval
}

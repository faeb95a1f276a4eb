package forecast

import (
	"time"

	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

// DefaultMinMaxFloor and DefaultMinMaxCeiling bound the clamp applied to the
// mean of non-zero demand when no tighter configuration is supplied.
const (
	DefaultMinMaxFloor   = 0.0
	DefaultMinMaxCeiling = 1e9
)

// MinMax is the low-cost C-Z fallback: a constant equal to the mean of
// non-zero demand, clamped to [floor, ceiling]. It is intentionally not a
// statistical forecast.
type MinMax struct {
	Floor, Ceiling float64

	state       state
	constant    float64
	zeroHistory bool
}

// NewMinMax constructs a MinMax model with the default, effectively
// unbounded clamp.
func NewMinMax() Model { return &MinMax{Floor: DefaultMinMaxFloor, Ceiling: DefaultMinMaxCeiling} }

// NewMinMaxWithBounds constructs a MinMax model with caller-supplied clamp
// bounds.
func NewMinMaxWithBounds(floor, ceiling float64) Model {
	return &MinMax{Floor: floor, Ceiling: ceiling}
}

func (m *MinMax) Method() string { return MethodMinMax }
func (m *MinMax) Family() Family { return FamilyRuleBased }

func (m *MinMax) Fit(history []models.SeriesPoint) error {
	var nonZero []float64
	for _, p := range history {
		if p.UnitsSold > 0 {
			nonZero = append(nonZero, p.UnitsSold)
		}
	}
	if len(nonZero) == 0 {
		// Zero-only histories are not a fit failure; they forecast 0
		// with a warning surfaced by the caller.
		m.zeroHistory = true
		m.constant = 0
		m.state = stateFitted
		return nil
	}

	sum := 0.0
	for _, u := range nonZero {
		sum += u
	}
	mean := sum / float64(len(nonZero))

	clamped := mean
	if clamped < m.Floor {
		clamped = m.Floor
	}
	if clamped > m.Ceiling {
		clamped = m.Ceiling
	}
	m.constant = clamped
	m.state = stateFitted
	return nil
}

func (m *MinMax) Predict(horizonDays int, trainingEndDate time.Time) ([]models.Prediction, error) {
	if m.state != stateFitted && m.state != statePredicted {
		return nil, errNotFitted(m.Method())
	}
	m.state = statePredicted
	return flatPredictions(trainingEndDate, horizonDays, m.constant), nil
}

// ZeroHistoryWarning reports whether Fit saw only zero demand, for the
// caller to surface as a warning.
func (m *MinMax) ZeroHistoryWarning() (warning string, ok bool) {
	if m.zeroHistory {
		return "min_max: history has no non-zero demand, forecasting 0", true
	}
	return "", false
}

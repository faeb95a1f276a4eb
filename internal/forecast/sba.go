package forecast

import (
	"time"

	"github.com/Suko/forecaster-enterprise-sub006/internal/forecasterr"
	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

// SBA is the Syntetos-Boylan Approximation: identical to Croston except the
// rate is multiplied by (1 - alpha/2) to correct Croston's known positive
// bias.
type SBA struct {
	Alpha float64

	state state
	rate  float64
}

// NewSBA constructs a fresh, unfitted SBA model with the default alpha.
func NewSBA() Model { return &SBA{Alpha: DefaultCrostonAlpha} }

// NewSBAWithAlpha constructs an SBA model with a custom smoothing constant.
func NewSBAWithAlpha(alpha float64) Model { return &SBA{Alpha: alpha} }

func (s *SBA) Method() string { return MethodSBA }
func (s *SBA) Family() Family { return FamilyStatisticalIntermittent }

func (s *SBA) Fit(history []models.SeriesPoint) error {
	if len(history) == 0 {
		return forecasterr.New(forecasterr.KindModelFitFailure, "sba requires a non-empty history")
	}
	size, interval := smoothDemandSizeAndInterval(history, s.Alpha)
	if interval == 0 {
		return forecasterr.New(forecasterr.KindModelFitFailure, "sba: series has no non-zero demand")
	}
	s.rate = (size / interval) * (1 - s.Alpha/2)
	s.state = stateFitted
	return nil
}

func (s *SBA) Predict(horizonDays int, trainingEndDate time.Time) ([]models.Prediction, error) {
	if s.state != stateFitted && s.state != statePredicted {
		return nil, errNotFitted(s.Method())
	}
	s.state = statePredicted
	return flatPredictions(trainingEndDate, horizonDays, s.rate), nil
}

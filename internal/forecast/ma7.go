package forecast

import (
	"time"

	"github.com/Suko/forecaster-enterprise-sub006/internal/forecasterr"
	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

// minMA7History is the minimum number of observed points MA7 requires.
const minMA7History = 7

// MA7 is the moving-average baseline: point forecast at every horizon day
// equals the mean of the last 7 observed non-null units. Quantiles equal
// the point forecast.
type MA7 struct {
	state   state
	average float64
}

// NewMA7 constructs a fresh, unfitted MA7 model.
func NewMA7() Model { return &MA7{} }

func (m *MA7) Method() string { return MethodMA7 }
func (m *MA7) Family() Family { return FamilyStatisticalSimple }

func (m *MA7) Fit(history []models.SeriesPoint) error {
	if len(history) < minMA7History {
		return forecasterr.New(forecasterr.KindModelFitFailure, "statistical_ma7 requires at least 7 observed points")
	}
	tail := history[len(history)-minMA7History:]
	sum := 0.0
	for _, p := range tail {
		sum += p.UnitsSold
	}
	m.average = sum / float64(minMA7History)
	m.state = stateFitted
	return nil
}

func (m *MA7) Predict(horizonDays int, trainingEndDate time.Time) ([]models.Prediction, error) {
	if m.state != stateFitted && m.state != statePredicted {
		return nil, errNotFitted(m.Method())
	}
	m.state = statePredicted
	return flatPredictions(trainingEndDate, horizonDays, m.average), nil
}

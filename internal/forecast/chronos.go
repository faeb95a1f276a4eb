package forecast

import (
	"math"
	"sync"
	"time"

	"github.com/Suko/forecaster-enterprise-sub006/internal/forecasterr"
	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

// Quantiles is the per-horizon-day (p10, p50, p90) triple a Pipeline
// returns for one series.
type Quantiles struct {
	P10, P50, P90 float64
}

// Pipeline is the zero-shot foundation-model inference boundary: given a
// univariate target series (already cast to float32) and a horizon,
// it returns one Quantiles per horizon day. A real deployment backs this
// with the pretrained Chronos-2 weights; this package only owns the
// contract and a deterministic reference implementation for environments
// without the model artifact available.
type Pipeline interface {
	Predict(series []float32, horizonDays int, seed int64) ([]Quantiles, error)
}

// seasonalNaivePipeline is the deterministic reference Pipeline: a 7-day
// seasonal-naive point forecast blended with a linear trend over the
// training window, with quantile spread derived from the in-sample
// 7-day-seasonal residual standard deviation. It has no external
// dependencies and is fully reproducible given the same series and seed.
type seasonalNaivePipeline struct{}

func (seasonalNaivePipeline) Predict(series []float32, horizonDays int, seed int64) ([]Quantiles, error) {
	n := len(series)
	if n == 0 {
		return nil, forecasterr.New(forecasterr.KindModelPredictFailure, "chronos-2: empty series")
	}

	f64 := make([]float64, n)
	for i, v := range series {
		f64[i] = float64(v)
	}

	trendPerDay := linearTrendSlope(f64)
	residualStd := seasonalResidualStd(f64)

	out := make([]Quantiles, horizonDays)
	for h := 0; h < horizonDays; h++ {
		seasonalIdx := n - 7 + (h % 7)
		if seasonalIdx < 0 {
			seasonalIdx = n - 1
		}
		base := f64[seasonalIdx] + trendPerDay*float64(h+1)
		if base < 0 {
			base = 0
		}
		out[h] = Quantiles{
			P10: base - 1.2816*residualStd,
			P50: base,
			P90: base + 1.2816*residualStd,
		}
	}
	return out, nil
}

func linearTrendSlope(series []float64) float64 {
	n := len(series)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (nf*sumXY - sumX*sumY) / denom
}

func seasonalResidualStd(series []float64) float64 {
	if len(series) < 8 {
		return 0
	}
	var residuals []float64
	for i := 7; i < len(series); i++ {
		residuals = append(residuals, series[i]-series[i-7])
	}
	mean := 0.0
	for _, r := range residuals {
		mean += r
	}
	mean /= float64(len(residuals))
	var sumSq float64
	for _, r := range residuals {
		d := r - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(residuals)))
}

var (
	defaultPipelineOnce sync.Once
	defaultPipeline     Pipeline
)

// DefaultPipeline returns the process-local singleton Pipeline, lazily
// initialized on first use. The pretrained pipeline is expensive to load
// and owned once per process.
func DefaultPipeline() Pipeline {
	defaultPipelineOnce.Do(func() {
		defaultPipeline = seasonalNaivePipeline{}
	})
	return defaultPipeline
}

// DefaultChronos2Seed is the fixed seed used for deterministic inference
// when no other seed is configured.
const DefaultChronos2Seed int64 = 42

// Chronos2 adapts the foundation ML model: it treats the series as a
// univariate target, calls the pipeline, and extracts per-horizon
// quantiles plus a median point forecast.
type Chronos2 struct {
	Pipeline Pipeline
	Seed     int64

	state   state
	history []float32
}

// NewChronos2 constructs a Chronos2 model backed by the process-local
// singleton pipeline and the default seed.
func NewChronos2() Model {
	return &Chronos2{Pipeline: DefaultPipeline(), Seed: DefaultChronos2Seed}
}

// NewChronos2WithSeed constructs a Chronos2 model backed by the
// process-local singleton pipeline and a caller-supplied seed.
func NewChronos2WithSeed(seed int64) Model {
	return &Chronos2{Pipeline: DefaultPipeline(), Seed: seed}
}

// NewChronos2WithPipeline constructs a Chronos2 model backed by a
// caller-supplied pipeline (used by tests to inject a fake).
func NewChronos2WithPipeline(p Pipeline) Model {
	return &Chronos2{Pipeline: p, Seed: DefaultChronos2Seed}
}

func (c *Chronos2) Method() string { return MethodChronos2 }
func (c *Chronos2) Family() Family { return FamilyMLFoundation }

func (c *Chronos2) Fit(history []models.SeriesPoint) error {
	if len(history) == 0 {
		return forecasterr.New(forecasterr.KindModelFitFailure, "chronos-2 requires a non-empty history")
	}
	series := make([]float32, len(history))
	for i, p := range history {
		series[i] = float32(p.UnitsSold)
	}
	c.history = series
	c.state = stateFitted
	return nil
}

func (c *Chronos2) Predict(horizonDays int, trainingEndDate time.Time) ([]models.Prediction, error) {
	if c.state != stateFitted && c.state != statePredicted {
		return nil, errNotFitted(c.Method())
	}

	quantiles, err := c.Pipeline.Predict(c.history, horizonDays, c.Seed)
	if err != nil {
		return nil, forecasterr.Wrap(forecasterr.KindModelPredictFailure, "chronos-2 pipeline call failed", err)
	}
	c.state = statePredicted

	dates := horizonDates(trainingEndDate, horizonDays)
	preds := make([]models.Prediction, horizonDays)
	for i, d := range dates {
		q := quantiles[i]
		preds[i] = models.Prediction{
			Date:          d,
			PointForecast: q.P50, // policy: median as point forecast
			Quantiles:     &models.PredictionQuantiles{P10: q.P10, P50: q.P50, P90: q.P90},
		}
	}
	return preds, nil
}

package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

func series(units ...float64) []models.SeriesPoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]models.SeriesPoint, len(units))
	for i, u := range units {
		pts[i] = models.SeriesPoint{ItemID: "sku-1", Date: start.AddDate(0, 0, i), UnitsSold: u}
	}
	return pts
}

func TestMA7_PredictsMeanOfLastSeven(t *testing.T) {
	m := NewMA7()
	hist := series(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14)
	require.NoError(t, m.Fit(hist))

	preds, err := m.Predict(5, hist[len(hist)-1].Date)
	require.NoError(t, err)
	require.Len(t, preds, 5)

	want := (8.0 + 9 + 10 + 11 + 12 + 13 + 14) / 7
	for _, p := range preds {
		assert.InDelta(t, want, p.PointForecast, 1e-9)
	}
}

func TestMA7_FitFailsBelowMinHistory(t *testing.T) {
	m := NewMA7()
	err := m.Fit(series(1, 2, 3))
	assert.Error(t, err)
}

func TestMA7_PredictBeforeFitFails(t *testing.T) {
	m := NewMA7()
	_, err := m.Predict(3, time.Now())
	assert.Error(t, err)
}

func TestCroston_FlatRateAcrossHorizon(t *testing.T) {
	c := NewCroston()
	hist := series(0, 0, 5, 0, 0, 0, 3, 0, 0, 4, 0, 0, 0, 0, 6)
	require.NoError(t, c.Fit(hist))

	preds, err := c.Predict(10, hist[len(hist)-1].Date)
	require.NoError(t, err)
	require.Len(t, preds, 10)

	rate := preds[0].PointForecast
	for _, p := range preds {
		assert.InDelta(t, rate, p.PointForecast, 1e-12)
	}
	assert.Greater(t, rate, 0.0)
}

func TestSBA_DebiasesCroston(t *testing.T) {
	hist := series(0, 0, 5, 0, 0, 0, 3, 0, 0, 4, 0, 0, 0, 0, 6)

	c := NewCroston()
	require.NoError(t, c.Fit(hist))
	cPreds, err := c.Predict(1, hist[len(hist)-1].Date)
	require.NoError(t, err)

	s := NewSBA()
	require.NoError(t, s.Fit(hist))
	sPreds, err := s.Predict(1, hist[len(hist)-1].Date)
	require.NoError(t, err)

	assert.Less(t, sPreds[0].PointForecast, cPreds[0].PointForecast)
	assert.InDelta(t, cPreds[0].PointForecast*(1-DefaultCrostonAlpha/2), sPreds[0].PointForecast, 1e-9)
}

func TestMinMax_ClampsToBounds(t *testing.T) {
	m := NewMinMaxWithBounds(2, 8)
	hist := series(0, 0, 20, 0, 0, 20, 0)
	require.NoError(t, m.Fit(hist))

	preds, err := m.Predict(3, hist[len(hist)-1].Date)
	require.NoError(t, err)
	for _, p := range preds {
		assert.Equal(t, 8.0, p.PointForecast)
	}
}

func TestMinMax_ZeroOnlyHistoryWarns(t *testing.T) {
	m := NewMinMax().(*MinMax)
	require.NoError(t, m.Fit(series(0, 0, 0, 0)))
	preds, err := m.Predict(2, time.Now())
	require.NoError(t, err)
	for _, p := range preds {
		assert.Equal(t, 0.0, p.PointForecast)
	}
	_, ok := m.ZeroHistoryWarning()
	assert.True(t, ok)
}

type fakePipeline struct{}

func (fakePipeline) Predict(series []float32, horizonDays int, seed int64) ([]Quantiles, error) {
	out := make([]Quantiles, horizonDays)
	for i := range out {
		out[i] = Quantiles{P10: 8, P50: 10, P90: 12}
	}
	return out, nil
}

func TestChronos2_UsesMedianAsPointForecast(t *testing.T) {
	m := NewChronos2WithPipeline(fakePipeline{})
	hist := series(10, 11, 9, 10, 10, 11, 9, 10)
	require.NoError(t, m.Fit(hist))

	preds, err := m.Predict(4, hist[len(hist)-1].Date)
	require.NoError(t, err)
	require.Len(t, preds, 4)
	for _, p := range preds {
		assert.Equal(t, 10.0, p.PointForecast)
		require.NotNil(t, p.Quantiles)
		assert.LessOrEqual(t, p.Quantiles.P10, p.Quantiles.P50)
		assert.LessOrEqual(t, p.Quantiles.P50, p.Quantiles.P90)
	}
}

func TestClipNonNegative(t *testing.T) {
	preds := []models.Prediction{
		{PointForecast: -5, Quantiles: &models.PredictionQuantiles{P10: -3, P50: -1, P90: 2}},
	}
	ClipNonNegative(preds)
	assert.Equal(t, 0.0, preds[0].PointForecast)
	assert.Equal(t, 0.0, preds[0].Quantiles.P10)
	assert.Equal(t, 0.0, preds[0].Quantiles.P50)
	assert.Equal(t, 2.0, preds[0].Quantiles.P90)
}

func TestFillMissingQuantiles(t *testing.T) {
	preds := []models.Prediction{{PointForecast: 7}}
	FillMissingQuantiles(preds)
	require.NotNil(t, preds[0].Quantiles)
	assert.Equal(t, 7.0, preds[0].Quantiles.P10)
	assert.Equal(t, 7.0, preds[0].Quantiles.P50)
	assert.Equal(t, 7.0, preds[0].Quantiles.P90)
}

func TestRegistry_Route(t *testing.T) {
	r := NewRegistry()

	t.Run("run all methods", func(t *testing.T) {
		res := r.Route(MethodChronos2, MethodSBA, true, true)
		assert.Len(t, res.Methods, 5)
	})

	t.Run("primary plus baseline", func(t *testing.T) {
		res := r.Route(MethodCroston, MethodCroston, true, false)
		assert.Equal(t, []string{MethodCroston, MethodMA7}, res.Methods)
	})

	t.Run("primary is already the baseline", func(t *testing.T) {
		res := r.Route(MethodMA7, MethodMA7, true, false)
		assert.Equal(t, []string{MethodMA7}, res.Methods)
	})

	t.Run("no baseline", func(t *testing.T) {
		res := r.Route(MethodChronos2, MethodChronos2, false, false)
		assert.Equal(t, []string{MethodChronos2}, res.Methods)
	})

	t.Run("unknown primary falls back", func(t *testing.T) {
		res := r.Route("not-a-method", MethodSBA, false, false)
		assert.Equal(t, []string{MethodSBA}, res.Methods)
		assert.NotEmpty(t, res.Warnings)
	})
}

func TestRegistry_Get_UnknownMethod(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	assert.Error(t, err)
}

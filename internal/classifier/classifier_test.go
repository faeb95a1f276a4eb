package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Suko/forecaster-enterprise-sub006/internal/forecast"
	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestClassifyABC(t *testing.T) {
	assert.Equal(t, models.ABCClassA, ClassifyABC(0.50))
	assert.Equal(t, models.ABCClassA, ClassifyABC(0.80))
	assert.Equal(t, models.ABCClassB, ClassifyABC(0.90))
	assert.Equal(t, models.ABCClassC, ClassifyABC(0.99))
}

func TestClassifyXYZ(t *testing.T) {
	assert.Equal(t, models.XYZClassX, ClassifyXYZ(0.2))
	assert.Equal(t, models.XYZClassY, ClassifyXYZ(0.5))
	assert.Equal(t, models.XYZClassZ, ClassifyXYZ(1.0))
}

func TestAverageDemandInterval_AllZero(t *testing.T) {
	adi := AverageDemandInterval(repeat(0, 30))
	assert.True(t, adi > 1e300) // +Inf
}

func TestClassifyDemandPattern_RoutingTable(t *testing.T) {
	// regular: low CV/ADI.
	assert.Equal(t, models.DemandPatternRegular, ClassifyDemandPattern(1.0, 0.1))
	// intermittent: ADI above threshold, low demand-size variability.
	assert.Equal(t, models.DemandPatternIntermittent, ClassifyDemandPattern(2.0, 0.2))
	// lumpy: ADI above threshold and high demand-size variability.
	assert.Equal(t, models.DemandPatternLumpy, ClassifyDemandPattern(2.0, 0.9))
}

func TestRecommendMethod_MatchesRoutingTable(t *testing.T) {
	cases := []struct {
		name    string
		abc     models.ABCClass
		xyz     models.XYZClass
		pattern models.DemandPattern
		want    string
	}{
		{"any lumpy -> sba", models.ABCClassA, models.XYZClassX, models.DemandPatternLumpy, forecast.MethodSBA},
		{"any intermittent -> croston", models.ABCClassB, models.XYZClassY, models.DemandPatternIntermittent, forecast.MethodCroston},
		{"C-Z regular -> min_max", models.ABCClassC, models.XYZClassZ, models.DemandPatternRegular, forecast.MethodMinMax},
		{"C-X regular -> ma7", models.ABCClassC, models.XYZClassX, models.DemandPatternRegular, forecast.MethodMA7},
		{"C-Y regular -> ma7", models.ABCClassC, models.XYZClassY, models.DemandPatternRegular, forecast.MethodMA7},
		{"A regular -> chronos-2", models.ABCClassA, models.XYZClassX, models.DemandPatternRegular, forecast.MethodChronos2},
		{"B regular -> chronos-2", models.ABCClassB, models.XYZClassX, models.DemandPatternRegular, forecast.MethodChronos2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RecommendMethod(tc.abc, tc.xyz, tc.pattern))
		})
	}
}

func TestForecastabilityScore_Bounds(t *testing.T) {
	score := ForecastabilityScore(0, 1, models.DemandPatternRegular)
	assert.InDelta(t, 1.0, score, 1e-9)

	lumpyScore := ForecastabilityScore(3, 10, models.DemandPatternLumpy)
	assert.Equal(t, 0.0, lumpyScore)
}

func TestClassify_LumpyHighVolume(t *testing.T) {
	// 730 days, >=50% zeros, widely varying non-zero demand.
	units := make([]float64, 730)
	for i := range units {
		switch {
		case i%2 == 0:
			units[i] = 0
		case i%6 == 1:
			units[i] = 100
		default:
			units[i] = 2
		}
	}

	result := Classify(units, 0.10) // A-tier revenue share
	assert.Equal(t, models.ABCClassA, result.ABCClass)
	assert.Equal(t, models.DemandPatternLumpy, result.DemandPattern)
	assert.Equal(t, forecast.MethodSBA, result.RecommendedMethod)
}

func TestClassify_RegularHighVolume(t *testing.T) {
	// 365 days, mean ~50, std ~5, no zeros.
	units := make([]float64, 365)
	for i := range units {
		if i%2 == 0 {
			units[i] = 48
		} else {
			units[i] = 52
		}
	}

	result := Classify(units, 0.10)
	assert.Equal(t, models.ABCClassA, result.ABCClass)
	assert.Equal(t, models.XYZClassX, result.XYZClass)
	assert.Equal(t, models.DemandPatternRegular, result.DemandPattern)
	assert.Equal(t, forecast.MethodChronos2, result.RecommendedMethod)
}

func TestClassify_Warnings(t *testing.T) {
	units := make([]float64, 100)
	for i := range units {
		if i%20 == 0 {
			units[i] = 50
		}
	}
	result := Classify(units, 0.99)
	assert.NotEmpty(t, result.Warnings)
}

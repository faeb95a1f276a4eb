package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Suko/forecaster-enterprise-sub006/internal/forecast"
	"github.com/Suko/forecaster-enterprise-sub006/internal/forecasterr"
	"github.com/Suko/forecaster-enterprise-sub006/internal/logging"
	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
	"github.com/Suko/forecaster-enterprise-sub006/internal/repository"
)

type mockHistory struct{ mock.Mock }

func (m *mockHistory) FetchHistory(ctx context.Context, clientID, itemID string, asOf time.Time) ([]models.SeriesPoint, error) {
	args := m.Called(ctx, clientID, itemID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SeriesPoint), args.Error(1)
}

func (m *mockHistory) ListItemIDs(ctx context.Context, clientID string) ([]string, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockRuns struct{ mock.Mock }

func (m *mockRuns) Create(ctx context.Context, run *models.ForecastRun) error {
	return m.Called(ctx, run).Error(0)
}
func (m *mockRuns) Complete(ctx context.Context, runID uuid.UUID) error {
	return m.Called(ctx, runID).Error(0)
}
func (m *mockRuns) Fail(ctx context.Context, runID uuid.UUID) error {
	return m.Called(ctx, runID).Error(0)
}
func (m *mockRuns) GetByID(ctx context.Context, runID uuid.UUID) (*models.ForecastRun, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForecastRun), args.Error(1)
}

type mockResults struct{ mock.Mock }

func (m *mockResults) AppendResults(ctx context.Context, rows []models.ForecastResult) error {
	return m.Called(ctx, rows).Error(0)
}
func (m *mockResults) Query(ctx context.Context, filter repository.ResultFilter) ([]models.ForecastResult, error) {
	panic("not used in these tests")
}
func (m *mockResults) DistinctMethods(ctx context.Context, itemID string, start, end *time.Time) ([]string, error) {
	panic("not used in these tests")
}
func (m *mockResults) BackfillActuals(ctx context.Context, itemID string, observations []models.ActualObservation) (int, error) {
	panic("not used in these tests")
}

type mockClassifications struct{ mock.Mock }

func (m *mockClassifications) Upsert(ctx context.Context, c *models.SKUClassification) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockClassifications) GetByItem(ctx context.Context, clientID, itemID string) (*models.SKUClassification, error) {
	args := m.Called(ctx, clientID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SKUClassification), args.Error(1)
}

func regularSeries(itemID string, days int) []models.SeriesPoint {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.SeriesPoint, days)
	for i := 0; i < days; i++ {
		points[i] = models.SeriesPoint{
			ItemID:    itemID,
			Date:      start.AddDate(0, 0, i),
			UnitsSold: 10 + float64(i%3),
		}
	}
	return points
}

func newTestOrchestrator(history *mockHistory, runs *mockRuns, results *mockResults, classifications *mockClassifications) *Orchestrator {
	return New(history, runs, results, classifications, forecast.NewRegistry(), Options{
		MinHistoryDays: 30,
		NaNPolicy:      models.NaNPolicyZero,
		ItemTimeout:    5 * time.Second,
	}, logging.NewDefaultLogger())
}

func TestGenerateForecast_SingleItemSucceeds(t *testing.T) {
	history := new(mockHistory)
	runs := new(mockRuns)
	results := new(mockResults)
	classifications := new(mockClassifications)

	series := regularSeries("sku-1", 60)
	history.On("ListItemIDs", mock.Anything, "client-a").Return([]string{"sku-1"}, nil)
	history.On("FetchHistory", mock.Anything, "client-a", "sku-1", mock.Anything).Return(series, nil)
	runs.On("Create", mock.Anything, mock.AnythingOfType("*models.ForecastRun")).Return(nil)
	results.On("AppendResults", mock.Anything, mock.Anything).Return(nil)
	runs.On("Complete", mock.Anything, mock.Anything).Return(nil)
	classifications.On("Upsert", mock.Anything, mock.AnythingOfType("*models.SKUClassification")).Return(nil)

	o := newTestOrchestrator(history, runs, results, classifications)

	resp, err := o.GenerateForecast(context.Background(), models.ForecastRequest{
		ClientID:         "client-a",
		ItemIDs:          []string{"sku-1"},
		PredictionLength: 7,
		PrimaryModel:     forecast.MethodMA7,
	})

	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, resp.Status)
	require.Len(t, resp.Items, 1)
	assert.Empty(t, resp.Failures)
	assert.Equal(t, "sku-1", resp.Items[0].ItemID)
	assert.Len(t, resp.Items[0].Predictions, 7)

	runs.AssertExpectations(t)
	results.AssertExpectations(t)
	classifications.AssertExpectations(t)
}

// TestGenerateForecast_ABCRanksGloballyWithinClient pins the catalogue-wide
// ABC ranking scope: a single requested item that accounts for
// almost all of the client's catalogue volume must classify as ABC class A,
// not C, even though it is the only item named in the request.
func TestGenerateForecast_ABCRanksGloballyWithinClient(t *testing.T) {
	history := new(mockHistory)
	runs := new(mockRuns)
	results := new(mockResults)
	classifications := new(mockClassifications)

	hot := regularSeries("sku-hot", 60)
	for i := range hot {
		hot[i].UnitsSold = 80
	}
	history.On("ListItemIDs", mock.Anything, "client-a").Return([]string{"sku-hot", "sku-cold-1", "sku-cold-2"}, nil)
	history.On("FetchHistory", mock.Anything, "client-a", "sku-hot", mock.Anything).Return(hot, nil)
	history.On("FetchHistory", mock.Anything, "client-a", "sku-cold-1", mock.Anything).Return(regularSeries("sku-cold-1", 60), nil)
	history.On("FetchHistory", mock.Anything, "client-a", "sku-cold-2", mock.Anything).Return(regularSeries("sku-cold-2", 60), nil)

	runs.On("Create", mock.Anything, mock.AnythingOfType("*models.ForecastRun")).Return(nil)
	results.On("AppendResults", mock.Anything, mock.Anything).Return(nil)
	runs.On("Complete", mock.Anything, mock.Anything).Return(nil)
	classifications.On("Upsert", mock.Anything, mock.AnythingOfType("*models.SKUClassification")).Return(nil)

	o := newTestOrchestrator(history, runs, results, classifications)

	resp, err := o.GenerateForecast(context.Background(), models.ForecastRequest{
		ClientID:         "client-a",
		ItemIDs:          []string{"sku-hot"},
		PredictionLength: 7,
		PrimaryModel:     forecast.MethodMA7,
	})

	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, models.ABCClassA, resp.Items[0].Classification.ABCClass)

	history.AssertNumberOfCalls(t, "FetchHistory", 3)
}

func TestGenerateForecast_OneItemFailsIsolatesFromSiblings(t *testing.T) {
	history := new(mockHistory)
	runs := new(mockRuns)
	results := new(mockResults)
	classifications := new(mockClassifications)

	goodSeries := regularSeries("sku-good", 60)
	history.On("ListItemIDs", mock.Anything, "client-a").Return([]string{"sku-good", "sku-bad"}, nil)
	history.On("FetchHistory", mock.Anything, "client-a", "sku-good", mock.Anything).Return(goodSeries, nil)
	history.On("FetchHistory", mock.Anything, "client-a", "sku-bad", mock.Anything).Return(regularSeries("sku-bad", 5), nil)

	runs.On("Create", mock.Anything, mock.AnythingOfType("*models.ForecastRun")).Return(nil)
	results.On("AppendResults", mock.Anything, mock.Anything).Return(nil)
	runs.On("Complete", mock.Anything, mock.Anything).Return(nil)
	classifications.On("Upsert", mock.Anything, mock.AnythingOfType("*models.SKUClassification")).Return(nil)

	o := newTestOrchestrator(history, runs, results, classifications)

	resp, err := o.GenerateForecast(context.Background(), models.ForecastRequest{
		ClientID:         "client-a",
		ItemIDs:          []string{"sku-good", "sku-bad"},
		PredictionLength: 7,
		PrimaryModel:     forecast.MethodMA7,
	})

	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, resp.Status)
	require.Len(t, resp.Items, 1)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "sku-good", resp.Items[0].ItemID)
	assert.Equal(t, "sku-bad", resp.Failures[0].ItemID)
	assert.Equal(t, string(forecasterr.KindInsufficientHistory), resp.Failures[0].Kind)
}

func TestGenerateForecast_AllItemsFailYieldsFailedRun(t *testing.T) {
	history := new(mockHistory)
	runs := new(mockRuns)
	results := new(mockResults)
	classifications := new(mockClassifications)

	history.On("ListItemIDs", mock.Anything, "client-a").Return([]string{"sku-bad"}, nil)
	history.On("FetchHistory", mock.Anything, "client-a", "sku-bad", mock.Anything).Return(regularSeries("sku-bad", 5), nil)
	runs.On("Create", mock.Anything, mock.AnythingOfType("*models.ForecastRun")).Return(nil)
	runs.On("Fail", mock.Anything, mock.Anything).Return(nil)

	o := newTestOrchestrator(history, runs, results, classifications)

	resp, err := o.GenerateForecast(context.Background(), models.ForecastRequest{
		ClientID:         "client-a",
		ItemIDs:          []string{"sku-bad"},
		PredictionLength: 7,
		PrimaryModel:     forecast.MethodMA7,
	})

	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, resp.Status)
	assert.Empty(t, resp.Items)
	require.Len(t, resp.Failures, 1)

	results.AssertNotCalled(t, "AppendResults", mock.Anything, mock.Anything)
}

func TestGenerateForecast_SkipPersistenceNeverWrites(t *testing.T) {
	history := new(mockHistory)
	runs := new(mockRuns)
	results := new(mockResults)
	classifications := new(mockClassifications)

	series := regularSeries("sku-1", 60)
	history.On("ListItemIDs", mock.Anything, "client-a").Return([]string{"sku-1"}, nil)
	history.On("FetchHistory", mock.Anything, "client-a", "sku-1", mock.Anything).Return(series, nil)

	o := newTestOrchestrator(history, runs, results, classifications)

	resp, err := o.GenerateForecast(context.Background(), models.ForecastRequest{
		ClientID:         "client-a",
		ItemIDs:          []string{"sku-1"},
		PredictionLength: 7,
		PrimaryModel:     forecast.MethodMA7,
		SkipPersistence:  true,
	})

	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, resp.Status)
	require.Len(t, resp.Items, 1)

	runs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	runs.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	results.AssertNotCalled(t, "AppendResults", mock.Anything, mock.Anything)
	classifications.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestGenerateForecast_IncludeBaselineAppendsMA7(t *testing.T) {
	history := new(mockHistory)
	runs := new(mockRuns)
	results := new(mockResults)
	classifications := new(mockClassifications)

	series := regularSeries("sku-1", 60)
	history.On("ListItemIDs", mock.Anything, "client-a").Return([]string{"sku-1"}, nil)
	history.On("FetchHistory", mock.Anything, "client-a", "sku-1", mock.Anything).Return(series, nil)
	runs.On("Create", mock.Anything, mock.AnythingOfType("*models.ForecastRun")).Return(nil)
	runs.On("Complete", mock.Anything, mock.Anything).Return(nil)
	classifications.On("Upsert", mock.Anything, mock.AnythingOfType("*models.SKUClassification")).Return(nil)

	var appended []models.ForecastResult
	results.On("AppendResults", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { appended = args.Get(1).([]models.ForecastResult) }).
		Return(nil)

	o := newTestOrchestrator(history, runs, results, classifications)

	include := true
	_, err := o.GenerateForecast(context.Background(), models.ForecastRequest{
		ClientID:         "client-a",
		ItemIDs:          []string{"sku-1"},
		PredictionLength: 7,
		PrimaryModel:     forecast.MethodCroston,
		IncludeBaseline:  &include,
	})

	require.NoError(t, err)

	methods := map[string]bool{}
	for _, row := range appended {
		methods[row.Method] = true
	}
	assert.True(t, methods[forecast.MethodCroston])
	assert.True(t, methods[forecast.MethodMA7])
}

func TestGenerateForecast_TestBedModeReturnsOneEntryPerMethod(t *testing.T) {
	history := new(mockHistory)
	runs := new(mockRuns)
	results := new(mockResults)
	classifications := new(mockClassifications)

	series := regularSeries("sku-1", 60)
	history.On("ListItemIDs", mock.Anything, "client-a").Return([]string{"sku-1"}, nil)
	history.On("FetchHistory", mock.Anything, "client-a", "sku-1", mock.Anything).Return(series, nil)

	o := newTestOrchestrator(history, runs, results, classifications)

	resp, err := o.GenerateForecast(context.Background(), models.ForecastRequest{
		ClientID:         "client-a",
		ItemIDs:          []string{"sku-1"},
		PredictionLength: 7,
		PrimaryModel:     forecast.MethodMA7,
		RunAllMethods:    true,
		SkipPersistence:  true,
	})

	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, resp.Status)
	require.Len(t, resp.Items, len(forecast.NewRegistry().ListMethods()))

	methods := map[string]bool{}
	for _, item := range resp.Items {
		assert.Equal(t, "sku-1", item.ItemID)
		methods[item.MethodUsed] = true
	}
	for _, m := range forecast.NewRegistry().ListMethods() {
		assert.True(t, methods[m], "expected an entry for method %s", m)
	}

	runs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	results.AssertNotCalled(t, "AppendResults", mock.Anything, mock.Anything)
}

func zeroSeries(itemID string, days int) []models.SeriesPoint {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.SeriesPoint, days)
	for i := 0; i < days; i++ {
		points[i] = models.SeriesPoint{ItemID: itemID, Date: start.AddDate(0, 0, i), UnitsSold: 0}
	}
	return points
}

// TestGenerateForecast_FailingPrimaryIsolatesFromSuccessfulBaseline pins
// that a MODEL_FIT_FAILURE for one routed method must not discard a
// sibling method in the same sequence that still succeeds.
func TestGenerateForecast_FailingPrimaryIsolatesFromSuccessfulBaseline(t *testing.T) {
	history := new(mockHistory)
	runs := new(mockRuns)
	results := new(mockResults)
	classifications := new(mockClassifications)

	series := zeroSeries("sku-1", 60)
	history.On("ListItemIDs", mock.Anything, "client-a").Return([]string{"sku-1"}, nil)
	history.On("FetchHistory", mock.Anything, "client-a", "sku-1", mock.Anything).Return(series, nil)
	runs.On("Create", mock.Anything, mock.AnythingOfType("*models.ForecastRun")).Return(nil)
	results.On("AppendResults", mock.Anything, mock.Anything).Return(nil)
	runs.On("Complete", mock.Anything, mock.Anything).Return(nil)
	classifications.On("Upsert", mock.Anything, mock.AnythingOfType("*models.SKUClassification")).Return(nil)

	o := newTestOrchestrator(history, runs, results, classifications)

	include := true
	resp, err := o.GenerateForecast(context.Background(), models.ForecastRequest{
		ClientID:         "client-a",
		ItemIDs:          []string{"sku-1"},
		PredictionLength: 7,
		PrimaryModel:     forecast.MethodCroston,
		IncludeBaseline:  &include,
	})

	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, resp.Status)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, forecast.MethodMA7, resp.Items[0].MethodUsed)

	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "sku-1", resp.Failures[0].ItemID)
	assert.Equal(t, forecast.MethodCroston, resp.Failures[0].Method)
	assert.Equal(t, string(forecasterr.KindModelFitFailure), resp.Failures[0].Kind)
}

// TestGenerateForecast_MinMaxZeroHistorySurfacesWarning pins that a
// zero-only history fit with Min/Max predicts 0 with a warning, and that
// the warning reaches the item's classification rather than staying on
// the model.
func TestGenerateForecast_MinMaxZeroHistorySurfacesWarning(t *testing.T) {
	history := new(mockHistory)
	runs := new(mockRuns)
	results := new(mockResults)
	classifications := new(mockClassifications)

	series := zeroSeries("sku-1", 60)
	history.On("ListItemIDs", mock.Anything, "client-a").Return([]string{"sku-1"}, nil)
	history.On("FetchHistory", mock.Anything, "client-a", "sku-1", mock.Anything).Return(series, nil)
	runs.On("Create", mock.Anything, mock.AnythingOfType("*models.ForecastRun")).Return(nil)
	results.On("AppendResults", mock.Anything, mock.Anything).Return(nil)
	runs.On("Complete", mock.Anything, mock.Anything).Return(nil)

	var upserted *models.SKUClassification
	classifications.On("Upsert", mock.Anything, mock.AnythingOfType("*models.SKUClassification")).
		Run(func(args mock.Arguments) { upserted = args.Get(1).(*models.SKUClassification) }).
		Return(nil)

	o := newTestOrchestrator(history, runs, results, classifications)

	resp, err := o.GenerateForecast(context.Background(), models.ForecastRequest{
		ClientID:         "client-a",
		ItemIDs:          []string{"sku-1"},
		PredictionLength: 7,
		PrimaryModel:     forecast.MethodMinMax,
	})

	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	for _, p := range resp.Items[0].Predictions {
		assert.Equal(t, 0.0, p.PointForecast)
	}

	require.NotNil(t, upserted)
	assert.Contains(t, upserted.Warnings, "min_max: history has no non-zero demand, forecasting 0")
}

// TestGenerateForecast_CancellationSkipsRemainingItems pins that run-level
// cancellation is advisory: items not yet started are marked skipped and
// the run still terminates through the normal completed/failed rule.
func TestGenerateForecast_CancellationSkipsRemainingItems(t *testing.T) {
	history := new(mockHistory)
	runs := new(mockRuns)
	results := new(mockResults)
	classifications := new(mockClassifications)

	history.On("ListItemIDs", mock.Anything, "client-a").Return([]string{"sku-1", "sku-2"}, nil)
	history.On("FetchHistory", mock.Anything, "client-a", "sku-1", mock.Anything).Return(regularSeries("sku-1", 60), nil)
	history.On("FetchHistory", mock.Anything, "client-a", "sku-2", mock.Anything).Return(regularSeries("sku-2", 60), nil)
	runs.On("Create", mock.Anything, mock.AnythingOfType("*models.ForecastRun")).Return(nil)
	runs.On("Fail", mock.Anything, mock.Anything).Return(nil)

	o := newTestOrchestrator(history, runs, results, classifications)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := o.GenerateForecast(ctx, models.ForecastRequest{
		ClientID:         "client-a",
		ItemIDs:          []string{"sku-1", "sku-2"},
		PredictionLength: 7,
		PrimaryModel:     forecast.MethodMA7,
	})

	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, resp.Status)
	assert.Empty(t, resp.Items)
	require.Len(t, resp.Failures, 2)
	for _, f := range resp.Failures {
		assert.Equal(t, string(forecasterr.KindSkipped), f.Kind)
	}

	results.AssertNotCalled(t, "AppendResults", mock.Anything, mock.Anything)
}

// Package orchestrator implements the run lifecycle that ties the
// validator, classifier, and forecast registry together into one
// generate-forecast call.
package orchestrator

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Suko/forecaster-enterprise-sub006/internal/classifier"
	"github.com/Suko/forecaster-enterprise-sub006/internal/events"
	"github.com/Suko/forecaster-enterprise-sub006/internal/forecast"
	"github.com/Suko/forecaster-enterprise-sub006/internal/forecasterr"
	"github.com/Suko/forecaster-enterprise-sub006/internal/kafka"
	"github.com/Suko/forecaster-enterprise-sub006/internal/logging"
	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
	"github.com/Suko/forecaster-enterprise-sub006/internal/repository"
	"github.com/Suko/forecaster-enterprise-sub006/internal/validator"
)

// Options configures the validator and per-item execution bounds the
// orchestrator applies to every request, absent overrides on the request
// itself.
type Options struct {
	MinHistoryDays int
	NaNPolicy      models.NaNPolicy
	FillValue      float64
	ItemTimeout    time.Duration
}

func (o Options) itemTimeout() time.Duration {
	if o.ItemTimeout <= 0 {
		return 30 * time.Second
	}
	return o.ItemTimeout
}

// Orchestrator coordinates forecast runs. It holds no per-request state;
// one instance serves every request in a process.
type Orchestrator struct {
	history         repository.HistoryProvider
	runs            repository.RunRepository
	results         repository.ResultRepository
	classifications repository.ClassificationRepository
	registry        *forecast.Registry
	opts            Options
	logger          *logging.Logger
	producer        kafka.Producer
}

// New builds an Orchestrator from its collaborators.
func New(
	history repository.HistoryProvider,
	runs repository.RunRepository,
	results repository.ResultRepository,
	classifications repository.ClassificationRepository,
	registry *forecast.Registry,
	opts Options,
	logger *logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		history:         history,
		runs:            runs,
		results:         results,
		classifications: classifications,
		registry:        registry,
		opts:            opts,
		logger:          logger,
	}
}

// WithProducer attaches a Kafka producer that publishes run-lifecycle
// events for downstream inventory recompute triggers. Nil is a valid
// value and disables publishing.
func (o *Orchestrator) WithProducer(p kafka.Producer) *Orchestrator {
	o.producer = p
	return o
}

func (o *Orchestrator) publishRunOutcome(response *models.ForecastResponse, clientID string) {
	if o.producer == nil {
		return
	}
	eventType := events.EventTypeRunCompleted
	if response.Status == models.RunStatusFailed {
		eventType = events.EventTypeRunFailed
	}
	payload := events.RunCompletedPayload{
		RunID:          response.ForecastRunID.String(),
		ClientID:       clientID,
		Status:         string(response.Status),
		ItemsSucceeded: len(response.Items),
		ItemsFailed:    len(response.Failures),
	}
	if err := o.producer.Publish(eventType, payload); err != nil {
		o.logger.Error("failed to publish run outcome event", logging.Error(err))
	}

	for _, f := range response.Failures {
		itemPayload := events.ItemFailedPayload{
			RunID:   response.ForecastRunID.String(),
			ItemID:  f.ItemID,
			Method:  f.Method,
			Kind:    f.Kind,
			Message: f.Message,
		}
		if err := o.producer.Publish(events.EventTypeItemFailed, itemPayload); err != nil {
			o.logger.Error("failed to publish item failure event",
				logging.ItemID(f.ItemID), logging.Error(err))
		}
	}
}

// itemOutcome is the intermediate result of processing one item_id, before
// it is folded into the response and (conditionally) persisted.
type itemOutcome struct {
	itemID         string
	classification models.SKUClassification
	methodUsed     string
	rows           []models.ForecastResult
	predictions    []models.Prediction
	// predictionsByMethod carries every successfully-routed method's
	// predictions in routed order, so test-bed mode (run_all_methods +
	// skip_persistence) can expand to one response entry per
	// (item_id, method), while normal mode reports only the first
	// successful method via methodUsed/predictions above.
	predictionsByMethod []methodPredictions
	// itemFailure is set when the item never reached per-method dispatch at
	// all (history fetch, validation, or the per-item timeout); nothing
	// about the item was produced.
	itemFailure *models.ItemFailure
	// methodFailures are per-method failures (MODEL_FIT_FAILURE /
	// MODEL_PREDICT_FAILURE) recorded while other methods in the same
	// routed sequence may still have succeeded.
	methodFailures []models.ItemFailure
}

type methodPredictions struct {
	method      string
	predictions []models.Prediction
}

// GenerateForecast runs the fetch/validate/classify/route/predict pipeline
// for every item_id in req and returns the completed (or failed) run,
// persisting it unless skip_persistence is set.
func (o *Orchestrator) GenerateForecast(ctx context.Context, req models.ForecastRequest) (*models.ForecastResponse, error) {
	runID := uuid.New()
	trainingEndDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.TrainingEndDate != nil {
		trainingEndDate = req.TrainingEndDate.Time
	}

	if !req.SkipPersistence {
		var ted *time.Time
		if req.TrainingEndDate != nil {
			ted = &req.TrainingEndDate.Time
		}
		run := &models.ForecastRun{
			RunID:            runID,
			ClientID:         req.ClientID,
			UserID:           req.UserID,
			Status:           models.RunStatusRunning,
			PrimaryModel:     req.PrimaryModel,
			IncludeBaseline:  req.IncludeBaselineOrDefault(),
			RunAllMethods:    req.RunAllMethods,
			SkipPersistence:  false,
			TrainingEndDate:  ted,
			PredictionLength: req.PredictionLength,
			CreatedAt:        time.Now().UTC(),
		}
		if err := o.runs.Create(ctx, run); err != nil {
			return nil, forecasterr.Wrap(forecasterr.KindPersistenceFailure, "failed to open forecast run", err)
		}
	}

	shares, rawCache := o.revenueShares(ctx, req.ClientID, req.ItemIDs, trainingEndDate)

	outcomes := make([]itemOutcome, 0, len(req.ItemIDs))
	for i, itemID := range req.ItemIDs {
		// Run-level cancellation is advisory: the in-flight item is
		// allowed to finish, then every remaining item is marked skipped and
		// the run still terminates through the normal completed/failed rule.
		if ctx.Err() != nil {
			for _, skipped := range req.ItemIDs[i:] {
				outcomes = append(outcomes, itemOutcome{
					itemID: skipped,
					itemFailure: &models.ItemFailure{
						ItemID:  skipped,
						Kind:    string(forecasterr.KindSkipped),
						Message: "run cancelled before this item was processed",
					},
				})
			}
			break
		}
		cached, cachedOK := rawCache[itemID]
		outcomes = append(outcomes, o.processItem(ctx, req, itemID, runID, trainingEndDate, shares[itemID], cached, cachedOK))
	}

	response := &models.ForecastResponse{ForecastRunID: runID}
	succeeded := 0
	var allRows []models.ForecastResult
	// Test-bed mode: run_all_methods + skip_persistence returns one entry
	// per (item_id, method) instead of one per item.
	testBed := req.RunAllMethods && req.SkipPersistence

	for _, oc := range outcomes {
		response.Failures = append(response.Failures, oc.methodFailures...)

		if oc.itemFailure != nil {
			response.Failures = append(response.Failures, *oc.itemFailure)
			continue
		}
		if len(oc.predictionsByMethod) == 0 {
			// Every routed method failed for this item; its failures are
			// already in methodFailures above, so the item contributes
			// nothing further and does not count toward "succeeded".
			continue
		}

		succeeded++
		if testBed {
			for _, mp := range oc.predictionsByMethod {
				response.Items = append(response.Items, models.ItemResult{
					ItemID:         oc.itemID,
					Classification: oc.classification,
					MethodUsed:     mp.method,
					Predictions:    mp.predictions,
				})
			}
		} else {
			response.Items = append(response.Items, models.ItemResult{
				ItemID:         oc.itemID,
				Classification: oc.classification,
				MethodUsed:     oc.methodUsed,
				Predictions:    oc.predictions,
			})
		}
		allRows = append(allRows, oc.rows...)

		if !req.SkipPersistence {
			if err := o.classifications.Upsert(ctx, &oc.classification); err != nil {
				o.logger.Error("failed to upsert sku classification", logging.ItemID(oc.itemID), logging.Error(err))
			}
		}
	}

	status := models.RunStatusFailed
	if succeeded > 0 {
		status = models.RunStatusCompleted
	}
	response.Status = status

	if req.SkipPersistence {
		o.publishRunOutcome(response, req.ClientID)
		return response, nil
	}

	if len(allRows) > 0 {
		if err := o.results.AppendResults(ctx, allRows); err != nil {
			_ = o.runs.Fail(ctx, runID)
			return nil, forecasterr.Wrap(forecasterr.KindPersistenceFailure, "failed to commit forecast results", err)
		}
	}

	if status == models.RunStatusCompleted {
		if err := o.runs.Complete(ctx, runID); err != nil {
			return nil, forecasterr.Wrap(forecasterr.KindPersistenceFailure, "failed to commit forecast run", err)
		}
	} else {
		if err := o.runs.Fail(ctx, runID); err != nil {
			return nil, forecasterr.Wrap(forecasterr.KindPersistenceFailure, "failed to commit forecast run", err)
		}
	}

	o.publishRunOutcome(response, req.ClientID)
	return response, nil
}

// processItem runs the fetch-through-predict steps for one item_id under
// a per-item timeout, turning any error into a recorded failure rather
// than propagating it to sibling items.
func (o *Orchestrator) processItem(
	ctx context.Context,
	req models.ForecastRequest,
	itemID string,
	runID uuid.UUID,
	trainingEndDate time.Time,
	revenueShare float64,
	cachedHistory []models.SeriesPoint,
	cachedHistoryOK bool,
) itemOutcome {
	oc := itemOutcome{itemID: itemID}

	// The timeout is derived from a detached parent so run-level cancellation
	// never aborts the item mid-write: the item either finishes within its
	// own budget or is recorded as a MODEL_TIMEOUT failure.
	itemCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.itemTimeout())
	defer cancel()

	done := make(chan itemOutcome, 1)
	go func() {
		done <- o.runItem(itemCtx, req, itemID, runID, trainingEndDate, revenueShare, cachedHistory, cachedHistoryOK)
	}()

	select {
	case result := <-done:
		return result
	case <-itemCtx.Done():
		oc.itemFailure = &models.ItemFailure{
			ItemID:  itemID,
			Kind:    string(forecasterr.KindModelTimeout),
			Message: "item processing exceeded the per-item timeout",
		}
		return oc
	}
}

func (o *Orchestrator) runItem(
	ctx context.Context,
	req models.ForecastRequest,
	itemID string,
	runID uuid.UUID,
	trainingEndDate time.Time,
	revenueShare float64,
	cachedHistory []models.SeriesPoint,
	cachedHistoryOK bool,
) itemOutcome {
	oc := itemOutcome{itemID: itemID}

	raw := cachedHistory
	if !cachedHistoryOK {
		fetched, err := o.history.FetchHistory(ctx, req.ClientID, itemID, trainingEndDate)
		if err != nil {
			oc.itemFailure = failureOf(itemID, "", err)
			return oc
		}
		raw = fetched
	}

	points := make([]validator.RawSeriesPoint, len(raw))
	for i, p := range raw {
		units := p.UnitsSold
		points[i] = validator.RawSeriesPoint{
			ItemID:    itemID,
			DateStr:   p.Date.Format("2006-01-02"),
			UnitsSold: &units,
		}
	}

	clean, _, err := validator.Validate(points, validator.Options{
		FillMissingDates: true,
		NaNPolicy:        o.opts.NaNPolicy,
		FillValue:        o.opts.FillValue,
		MinHistoryDays:   o.opts.MinHistoryDays,
	})
	if err != nil {
		oc.itemFailure = failureOf(itemID, "", err)
		return oc
	}

	units := make([]float64, len(clean))
	for i, p := range clean {
		units[i] = p.UnitsSold
	}

	result := classifier.Classify(units, revenueShare)
	route := o.registry.Route(req.PrimaryModel, result.RecommendedMethod, req.IncludeBaselineOrDefault(), req.RunAllMethods)

	warnings := append([]string{}, result.Warnings...)
	warnings = append(warnings, route.Warnings...)

	// Each routed method is fit/predicted independently: a MODEL_FIT_FAILURE
	// or MODEL_PREDICT_FAILURE for one method must not discard results
	// other methods in the same sequence already produced.
	for _, method := range route.Methods {
		model, err := o.registry.Get(method)
		if err != nil {
			oc.methodFailures = append(oc.methodFailures, *failureOf(itemID, method, err))
			continue
		}
		if err := model.Fit(clean); err != nil {
			oc.methodFailures = append(oc.methodFailures, *failureOf(itemID, method, err))
			continue
		}
		if mm, ok := model.(*forecast.MinMax); ok {
			if w, hasWarning := mm.ZeroHistoryWarning(); hasWarning {
				warnings = append(warnings, w)
			}
		}
		preds, err := model.Predict(req.PredictionLength, trainingEndDate)
		if err != nil {
			oc.methodFailures = append(oc.methodFailures, *failureOf(itemID, method, err))
			continue
		}
		forecast.ClipNonNegative(preds)
		forecast.FillMissingQuantiles(preds)

		if oc.methodUsed == "" {
			oc.methodUsed = method
			oc.predictions = preds
		}
		oc.predictionsByMethod = append(oc.predictionsByMethod, methodPredictions{method: method, predictions: preds})

		for _, p := range preds {
			oc.rows = append(oc.rows, models.ForecastResult{
				RunID:         runID,
				ItemID:        itemID,
				Method:        method,
				ForecastDate:  p.Date,
				PointForecast: p.PointForecast,
				P10:           &p.Quantiles.P10,
				P50:           &p.Quantiles.P50,
				P90:           &p.Quantiles.P90,
			})
		}
	}

	oc.classification = models.SKUClassification{
		ClientID:             req.ClientID,
		ItemID:               itemID,
		ABCClass:             result.ABCClass,
		XYZClass:             result.XYZClass,
		DemandPattern:        result.DemandPattern,
		ADI:                  result.ADI,
		CVSquared:            result.CVSquared,
		ForecastabilityScore: result.ForecastabilityScore,
		RecommendedMethod:    result.RecommendedMethod,
		ExpectedMAPELow:      result.ExpectedMAPERange.Low,
		ExpectedMAPEHigh:     result.ExpectedMAPERange.High,
		Warnings:             warnings,
		UpdatedAt:            time.Now().UTC(),
	}

	return oc
}

// revenueShares ranks every item in clientID's catalogue by total units
// sold over the training window (the revenue proxy when no unit cost or
// external revenue figure is supplied) and returns each requested item's
// cumulative revenue share for ABC classification. ABC ranks over the full
// catalogue via HistoryProvider.ListItemIDs, not just the item_ids named
// in this request; otherwise a request for a single A-class item would
// always rank as 100% of its own total and classify as C.
//
// It also returns the raw history it already fetched for every requested
// item, so runItem can reuse it instead of fetching the same series twice.
func (o *Orchestrator) revenueShares(
	ctx context.Context,
	clientID string,
	requestedItemIDs []string,
	asOf time.Time,
) (shares map[string]float64, rawCache map[string][]models.SeriesPoint) {
	catalogueIDs, err := o.history.ListItemIDs(ctx, clientID)
	if err != nil {
		o.logger.Error("failed to list client catalogue for ABC ranking, falling back to the requested items only", logging.Error(err))
		catalogueIDs = nil
	}

	rankIDs := catalogueIDs
	requested := make(map[string]bool, len(requestedItemIDs))
	for _, id := range requestedItemIDs {
		requested[id] = true
	}
	inCatalogue := make(map[string]bool, len(catalogueIDs))
	for _, id := range catalogueIDs {
		inCatalogue[id] = true
	}
	for _, id := range requestedItemIDs {
		if !inCatalogue[id] {
			rankIDs = append(rankIDs, id)
		}
	}

	type total struct {
		itemID string
		units  float64
	}
	totals := make([]total, 0, len(rankIDs))
	rawCache = make(map[string][]models.SeriesPoint, len(requestedItemIDs))

	for _, itemID := range rankIDs {
		points, err := o.history.FetchHistory(ctx, clientID, itemID, asOf)
		if err != nil {
			totals = append(totals, total{itemID: itemID, units: 0})
			continue
		}
		if requested[itemID] {
			rawCache[itemID] = points
		}
		sum := 0.0
		for _, p := range points {
			sum += p.UnitsSold
		}
		totals = append(totals, total{itemID: itemID, units: sum})
	}

	sort.Slice(totals, func(i, j int) bool { return totals[i].units > totals[j].units })

	grand := 0.0
	for _, t := range totals {
		grand += t.units
	}

	shares = make(map[string]float64, len(totals))
	if grand <= 0 {
		for _, t := range totals {
			shares[t.itemID] = 1.0
		}
		return shares, rawCache
	}

	running := 0.0
	for _, t := range totals {
		running += t.units
		shares[t.itemID] = running / grand
	}
	return shares, rawCache
}

func failureOf(itemID, method string, err error) *models.ItemFailure {
	kind := forecasterr.KindOf(err)
	if kind == "" {
		kind = forecasterr.KindModelPredictFailure
	}
	return &models.ItemFailure{
		ItemID:  itemID,
		Method:  method,
		Kind:    string(kind),
		Message: err.Error(),
	}
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Suko/forecaster-enterprise-sub006/internal/config"
	"github.com/Suko/forecaster-enterprise-sub006/internal/events"
	"github.com/Suko/forecaster-enterprise-sub006/internal/kafka"
	"github.com/Suko/forecaster-enterprise-sub006/internal/logging"
	"github.com/Suko/forecaster-enterprise-sub006/internal/metrics"
	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
	"github.com/Suko/forecaster-enterprise-sub006/internal/orchestrator"
	"github.com/Suko/forecaster-enterprise-sub006/internal/quality"
	"github.com/Suko/forecaster-enterprise-sub006/internal/repository"
)

const clientIDHeader = "X-Client-Id"

// HTTPServer represents the HTTP server
type HTTPServer struct {
	server  *http.Server
	router  *mux.Router
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewHTTPServer creates a new HTTP server exposing the forecast engine's
// REST surface: generate forecast, fetch results, backfill actuals, and
// the quality query, plus health and metrics.
func NewHTTPServer(
	cfg *config.Config,
	orch *orchestrator.Orchestrator,
	runs repository.RunRepository,
	results repository.ResultRepository,
	producer kafka.Producer,
) *HTTPServer {
	logger, err := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Encoding:    cfg.Logging.Encoding,
	})
	if err != nil {
		logger = logging.NewDefaultLogger()
		logger.Sugar().Errorf("Failed to create logger: %v", err)
	}

	metricsInstance := metrics.NewMetrics()

	router := mux.NewRouter()
	router.Use(metricsInstance.HTTPMiddleware)

	h := &handlers{orch: orch, runs: runs, results: results, producer: producer, logger: logger, metrics: metricsInstance}

	router.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	router.HandleFunc("/forecasts", h.generateForecast).Methods(http.MethodPost)
	router.HandleFunc("/forecasts/{run_id}/results/{method}", h.fetchResults).Methods(http.MethodGet)
	router.HandleFunc("/items/{item_id}/actuals", h.backfillActuals).Methods(http.MethodPost)
	router.HandleFunc("/items/{item_id}/quality", h.quality).Methods(http.MethodGet)

	if cfg.Metrics.Enabled {
		router.Handle("/metrics", metricsInstance.Handler())
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &HTTPServer{
		server:  server,
		router:  router,
		logger:  logger,
		metrics: metricsInstance,
	}
}

// Handler returns the server's root handler, for tests that drive the
// routes without binding a port.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.Sugar().Infof("Starting HTTP server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Sugar().Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handlers groups the REST endpoints with the collaborators they need.
// Authentication and session management live outside this service; the
// REST layer reads the tenant off a header rather than a session.
type handlers struct {
	orch     *orchestrator.Orchestrator
	runs     repository.RunRepository
	results  repository.ResultRepository
	producer kafka.Producer
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

func (h *handlers) generateForecast(w http.ResponseWriter, r *http.Request) {
	clientID := r.Header.Get(clientIDHeader)
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "missing "+clientIDHeader+" header")
		return
	}

	var req models.ForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.ClientID = clientID

	start := time.Now()
	resp, err := h.orch.GenerateForecast(r.Context(), req)
	duration := time.Since(start)
	if err != nil {
		h.metrics.ObserveForecastRun("error", duration)
		h.logger.Sugar().Errorw("generate forecast failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.metrics.ObserveForecastRun(string(resp.Status), duration)
	for _, f := range resp.Failures {
		h.metrics.ObserveItemFailure(f.Kind)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) fetchResults(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID, err := uuid.Parse(vars["run_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run_id")
		return
	}
	method := vars["method"]

	if _, err := h.runs.GetByID(r.Context(), runID); err != nil {
		if repository.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "unknown run_id")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rows, err := h.results.Query(r.Context(), repository.ResultFilter{RunID: &runID, Method: method})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rows)
}

func (h *handlers) backfillActuals(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["item_id"]

	var observations []models.ActualObservation
	if err := json.NewDecoder(r.Body).Decode(&observations); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	updated, err := h.results.BackfillActuals(r.Context(), itemID, observations)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.producer != nil {
		payload := events.ActualsBackfilledPayload{
			ItemID:       itemID,
			RowsUpdated:  updated,
			Observations: len(observations),
		}
		if err := h.producer.Publish(events.EventTypeActualsBackfilled, payload); err != nil {
			h.logger.Error("failed to publish backfill event",
				logging.ItemID(itemID), logging.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, map[string]int{"updated_count": updated})
}

func (h *handlers) quality(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["item_id"]
	q := r.URL.Query()

	var startDate, endDate *time.Time
	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		startDate = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date")
			return
		}
		endDate = &t
	}

	var runID *uuid.UUID
	if v := q.Get("run_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid run_id")
			return
		}
		runID = &id
	}

	methods, err := h.results.DistinctMethods(r.Context(), itemID, startDate, endDate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(methods) == 0 {
		writeError(w, http.StatusNotFound, "no forecast results for item "+itemID)
		return
	}

	rowsByMethod := make(map[string][]models.ForecastResult, len(methods))
	for _, method := range methods {
		rows, err := h.results.Query(r.Context(), repository.ResultFilter{
			ItemID:    itemID,
			Method:    method,
			RunID:     runID,
			StartDate: startDate,
			EndDate:   endDate,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		rowsByMethod[method] = rows
	}

	scores := quality.ScoreByMethod(methods, rowsByMethod)
	for _, s := range scores {
		if s.MAPE != nil {
			h.metrics.SetMethodMAPE(itemID, s.Method, *s.MAPE)
		}
	}

	writeJSON(w, http.StatusOK, scores)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

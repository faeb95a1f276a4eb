package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
	"github.com/Suko/forecaster-enterprise-sub006/internal/repository"
)

// RunRepository is an in-memory repository.RunRepository.
type RunRepository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]models.ForecastRun
}

// NewRunRepository returns an empty run repository.
func NewRunRepository() *RunRepository {
	return &RunRepository{runs: make(map[uuid.UUID]models.ForecastRun)}
}

// Create stores a new run.
func (r *RunRepository) Create(ctx context.Context, run *models.ForecastRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.runs[run.RunID]; exists {
		return fmt.Errorf("forecast run exists: %w", repository.ErrAlreadyExists)
	}
	r.runs[run.RunID] = *run
	return nil
}

// Complete transitions a run to "completed".
func (r *RunRepository) Complete(ctx context.Context, runID uuid.UUID) error {
	return r.setStatus(runID, models.RunStatusCompleted)
}

// Fail transitions a run to "failed".
func (r *RunRepository) Fail(ctx context.Context, runID uuid.UUID) error {
	return r.setStatus(runID, models.RunStatusFailed)
}

func (r *RunRepository) setStatus(runID uuid.UUID, status models.RunStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return fmt.Errorf("forecast run not found: %w", repository.ErrNotFound)
	}
	run.Status = status
	r.runs[runID] = run
	return nil
}

// GetByID retrieves a run by id.
func (r *RunRepository) GetByID(ctx context.Context, runID uuid.UUID) (*models.ForecastRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[runID]
	if !ok {
		return nil, fmt.Errorf("forecast run not found: %w", repository.ErrNotFound)
	}
	return &run, nil
}

// ResultRepository is an in-memory repository.ResultRepository.
type ResultRepository struct {
	mu   sync.RWMutex
	rows []models.ForecastResult
}

// NewResultRepository returns an empty result repository.
func NewResultRepository() *ResultRepository {
	return &ResultRepository{}
}

// AppendResults stores a batch of result rows.
func (r *ResultRepository) AppendResults(ctx context.Context, rows []models.ForecastResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rows...)
	return nil
}

// Query returns result rows matching filter, ordered by
// (item_id, forecast_date) ascending.
func (r *ResultRepository) Query(ctx context.Context, filter repository.ResultFilter) ([]models.ForecastResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.ForecastResult
	for _, row := range r.rows {
		if filter.RunID != nil && row.RunID != *filter.RunID {
			continue
		}
		if filter.ItemID != "" && row.ItemID != filter.ItemID {
			continue
		}
		if filter.Method != "" && row.Method != filter.Method {
			continue
		}
		if filter.StartDate != nil && row.ForecastDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && row.ForecastDate.After(*filter.EndDate) {
			continue
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ItemID != out[j].ItemID {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].ForecastDate.Before(out[j].ForecastDate.Time)
	})
	return out, nil
}

// DistinctMethods returns every method with at least one result row for
// itemID in the window, ignoring any run restriction.
func (r *ResultRepository) DistinctMethods(ctx context.Context, itemID string, start, end *time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, row := range r.rows {
		if row.ItemID != itemID {
			continue
		}
		if start != nil && row.ForecastDate.Before(*start) {
			continue
		}
		if end != nil && row.ForecastDate.After(*end) {
			continue
		}
		seen[row.Method] = true
	}

	methods := make([]string, 0, len(seen))
	for m := range seen {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods, nil
}

// BackfillActuals overwrites actual_value on existing rows for itemID at
// the given dates. It never creates rows.
func (r *ResultRepository) BackfillActuals(ctx context.Context, itemID string, observations []models.ActualObservation) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := 0
	for _, obs := range observations {
		for i := range r.rows {
			if r.rows[i].ItemID != itemID || !r.rows[i].ForecastDate.Equal(obs.Date.Time) {
				continue
			}
			v := obs.ActualValue
			r.rows[i].ActualValue = &v
			updated++
		}
	}
	return updated, nil
}

// ClassificationRepository is an in-memory
// repository.ClassificationRepository.
type ClassificationRepository struct {
	mu   sync.RWMutex
	rows map[string]models.SKUClassification
}

// NewClassificationRepository returns an empty classification repository.
func NewClassificationRepository() *ClassificationRepository {
	return &ClassificationRepository{rows: make(map[string]models.SKUClassification)}
}

func classificationKey(clientID, itemID string) string { return clientID + "\x00" + itemID }

// Upsert writes or replaces the classification for (client_id, item_id).
func (r *ClassificationRepository) Upsert(ctx context.Context, c *models.SKUClassification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[classificationKey(c.ClientID, c.ItemID)] = *c
	return nil
}

// GetByItem retrieves the stored classification for (client_id, item_id).
func (r *ClassificationRepository) GetByItem(ctx context.Context, clientID, itemID string) (*models.SKUClassification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.rows[classificationKey(clientID, itemID)]
	if !ok {
		return nil, fmt.Errorf("sku classification not found: %w", repository.ErrNotFound)
	}
	return &c, nil
}

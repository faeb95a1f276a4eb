// Package memory provides in-memory implementations of the repository
// ports. They back tests and local wiring where no database or ingestion
// collaborator is available; semantics match the PostgreSQL
// implementations.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Suko/forecaster-enterprise-sub006/internal/forecasterr"
	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

// HistoryProvider is an in-memory repository.HistoryProvider seeded by the
// caller.
type HistoryProvider struct {
	mu     sync.RWMutex
	series map[string]map[string][]models.SeriesPoint
}

// NewHistoryProvider returns an empty provider.
func NewHistoryProvider() *HistoryProvider {
	return &HistoryProvider{series: make(map[string]map[string][]models.SeriesPoint)}
}

// Seed stores points under (clientID, itemID), replacing any prior series
// for that pair.
func (p *HistoryProvider) Seed(clientID, itemID string, points []models.SeriesPoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.series[clientID] == nil {
		p.series[clientID] = make(map[string][]models.SeriesPoint)
	}
	cp := make([]models.SeriesPoint, len(points))
	copy(cp, points)
	p.series[clientID][itemID] = cp
}

// FetchHistory returns the seeded series for clientID/itemID, truncated to
// points dated on or before asOf.
func (p *HistoryProvider) FetchHistory(ctx context.Context, clientID, itemID string, asOf time.Time) ([]models.SeriesPoint, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	points, ok := p.series[clientID][itemID]
	if !ok {
		return nil, forecasterr.New(forecasterr.KindNotFound, "no history for "+clientID+"/"+itemID)
	}

	out := make([]models.SeriesPoint, 0, len(points))
	for _, pt := range points {
		if pt.Date.After(asOf) {
			continue
		}
		out = append(out, pt)
	}
	return out, nil
}

// ListItemIDs returns every seeded item id for clientID, sorted.
func (p *HistoryProvider) ListItemIDs(ctx context.Context, clientID string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	items := p.series[clientID]
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

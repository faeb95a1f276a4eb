package repository

import (
	"context"
	"time"

	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

// HistoryProvider is the ingestion collaborator port: the engine consumes
// a cleaned daily series per item from whatever system owns CSV/ETL
// ingestion. No concrete adapter ships here.
type HistoryProvider interface {
	// FetchHistory returns the raw daily series for clientID/itemID up to
	// and including asOf.
	FetchHistory(ctx context.Context, clientID, itemID string, asOf time.Time) ([]models.SeriesPoint, error)

	// ListItemIDs returns every item id in clientID's catalogue, so ABC
	// classification can rank across the whole catalogue instead of only
	// the items named in one request.
	ListItemIDs(ctx context.Context, clientID string) ([]string, error)
}

package repository

import (
	"context"

	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

// ClassificationRepository persists sku_classifications rows. Rows are
// (re)written as a side effect of every non-skip-persistence run.
type ClassificationRepository interface {
	// Upsert writes or replaces the classification for (client_id, item_id).
	Upsert(ctx context.Context, c *models.SKUClassification) error

	// GetByItem retrieves the stored classification for (client_id, item_id).
	GetByItem(ctx context.Context, clientID, itemID string) (*models.SKUClassification, error)
}

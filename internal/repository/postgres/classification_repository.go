package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
	"github.com/Suko/forecaster-enterprise-sub006/internal/repository"
)

// ClassificationRepository implements repository.ClassificationRepository
// using PostgreSQL.
type ClassificationRepository struct {
	db *Database
}

// NewClassificationRepository creates a new PostgreSQL sku_classifications
// repository.
func NewClassificationRepository(db *Database) repository.ClassificationRepository {
	return &ClassificationRepository{db: db}
}

// Upsert writes or replaces the classification for (client_id, item_id).
func (r *ClassificationRepository) Upsert(ctx context.Context, c *models.SKUClassification) error {
	query := `
		INSERT INTO sku_classifications (
			client_id, item_id, abc_class, xyz_class, demand_pattern, adi,
			cv_squared, forecastability_score, recommended_method,
			expected_mape_low, expected_mape_high, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		ON CONFLICT (client_id, item_id) DO UPDATE SET
			abc_class = EXCLUDED.abc_class,
			xyz_class = EXCLUDED.xyz_class,
			demand_pattern = EXCLUDED.demand_pattern,
			adi = EXCLUDED.adi,
			cv_squared = EXCLUDED.cv_squared,
			forecastability_score = EXCLUDED.forecastability_score,
			recommended_method = EXCLUDED.recommended_method,
			expected_mape_low = EXCLUDED.expected_mape_low,
			expected_mape_high = EXCLUDED.expected_mape_high,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.GetDB().ExecContext(
		ctx, query,
		c.ClientID, c.ItemID, c.ABCClass, c.XYZClass, c.DemandPattern, c.ADI,
		c.CVSquared, c.ForecastabilityScore, c.RecommendedMethod,
		c.ExpectedMAPELow, c.ExpectedMAPEHigh, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sku classification: %w", err)
	}
	return nil
}

// GetByItem retrieves the stored classification for (client_id, item_id).
// Warnings are not persisted (they are derived, not stored truth) and come
// back empty; callers that need them recompute via the classifier.
func (r *ClassificationRepository) GetByItem(ctx context.Context, clientID, itemID string) (*models.SKUClassification, error) {
	query := `
		SELECT client_id, item_id, abc_class, xyz_class, demand_pattern, adi,
			cv_squared, forecastability_score, recommended_method,
			expected_mape_low, expected_mape_high, updated_at
		FROM sku_classifications
		WHERE client_id = $1 AND item_id = $2
	`

	var c models.SKUClassification
	err := r.db.GetDB().GetContext(ctx, &c, query, clientID, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sku classification not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get sku classification: %w", err)
	}
	return &c, nil
}

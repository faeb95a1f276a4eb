package main

import (
	"context"
	"time"

	"github.com/Suko/forecaster-enterprise-sub006/internal/config"
	"github.com/Suko/forecaster-enterprise-sub006/internal/forecasterr"
	"github.com/Suko/forecaster-enterprise-sub006/internal/logging"
	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
)

// noopHistoryProvider is the placeholder for the ingestion collaborator;
// CSV/ETL ingestion lives outside this service. A deployment wires a real
// repository.HistoryProvider backed by whatever system owns cleaned daily
// sales history.
type noopHistoryProvider struct{}

func (noopHistoryProvider) FetchHistory(ctx context.Context, clientID, itemID string, asOf time.Time) ([]models.SeriesPoint, error) {
	return nil, forecasterr.New(forecasterr.KindNotFound, "no ingestion collaborator configured for "+clientID+"/"+itemID)
}

func (noopHistoryProvider) ListItemIDs(ctx context.Context, clientID string) ([]string, error) {
	return nil, forecasterr.New(forecasterr.KindNotFound, "no ingestion collaborator configured for "+clientID)
}

func newLoggerOrDefault(cfg *config.Config) (*logging.Logger, error) {
	logger, err := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Encoding:    cfg.Logging.Encoding,
	})
	if err != nil {
		return logging.NewDefaultLogger(), err
	}
	return logger, nil
}

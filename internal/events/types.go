package events

import (
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Run lifecycle events
	EventTypeRunStarted   EventType = "forecast.run.started"
	EventTypeRunCompleted EventType = "forecast.run.completed"
	EventTypeRunFailed    EventType = "forecast.run.failed"

	// Per-item events
	EventTypeItemForecasted EventType = "forecast.item.forecasted"
	EventTypeItemFailed     EventType = "forecast.item.failed"

	// Backfill events
	EventTypeActualsBackfilled EventType = "forecast.actuals.backfilled"
)

// Event represents a Kafka event
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// EventHandler is a function that handles an event
type EventHandler func(event Event) error

// RunCompletedPayload is the payload of a forecast.run.completed or
// forecast.run.failed event.
type RunCompletedPayload struct {
	RunID          string `json:"run_id"`
	ClientID       string `json:"client_id"`
	Status         string `json:"status"`
	ItemsSucceeded int    `json:"items_succeeded"`
	ItemsFailed    int    `json:"items_failed"`
}

// ItemFailedPayload is the payload of a forecast.item.failed event.
type ItemFailedPayload struct {
	RunID   string `json:"run_id"`
	ItemID  string `json:"item_id"`
	Method  string `json:"method,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ActualsBackfilledPayload is the payload of a forecast.actuals.backfilled
// event.
type ActualsBackfilledPayload struct {
	ItemID       string `json:"item_id"`
	RowsUpdated  int    `json:"rows_updated"`
	Observations int    `json:"observations_submitted"`
}

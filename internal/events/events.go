// Package events publishes label lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventLabelPurchased = "LabelPurchased"
	EventBatchCompleted = "BatchCompleted"
)

const eventVersion = 1

// Envelope wraps every published event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// LabelPurchasedPayload describes one bought label.
type LabelPurchasedPayload struct {
	UserID       string `json:"user_id"`
	BatchID      string `json:"batch_id"`
	OrderNumber  string `json:"order_number"`
	ShipmentID   string `json:"shipment_id"`
	TrackingCode string `json:"tracking_code"`
	LabelURL     string `json:"label_url"`
	Carrier      string `json:"carrier"`
	Service      string `json:"service"`
	Postage      string `json:"postage"`
}

// BatchCompletedPayload summarises a finished purchase run.
type BatchCompletedPayload struct {
	UserID    string         `json:"user_id"`
	BatchID   string         `json:"batch_id"`
	BatchName string         `json:"batch_name"`
	Submitted int            `json:"submitted"`
	Purchased int            `json:"purchased"`
	Skipped   map[string]int `json:"skipped,omitempty"`
}

// Publisher hands events to a broker. Publish must not block on the broker.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// NewEnvelope builds an envelope with a fresh id around payload.
// The batch id is the correlation id so a run's events share a partition.
func NewEnvelope(eventType, producer, correlationID string, payload any, now time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		OccurredAt:    now.UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

// UnwrapPayload decodes an envelope payload.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("failed to decode payload: %w", err)
	}
	return t, nil
}

// NopPublisher discards every event. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Envelope) error { return nil }
func (NopPublisher) Close() error                            { return nil }

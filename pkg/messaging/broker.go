package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Publisher emits domain events for one tenant.
type Publisher interface {
	Publish(ctx context.Context, tenantID uuid.UUID, eventType string, payload interface{}) error
}

// Message is the envelope written to the broker.
type Message struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	TenantID   uuid.UUID   `json:"tenant_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Event types
const (
	EventVisitCreated       = "visit.created"
	EventVisitStatusChanged = "visit.status_changed"
	EventVisitReassigned    = "visit.reassigned"
	EventPaymentRecorded    = "payment.recorded"
)

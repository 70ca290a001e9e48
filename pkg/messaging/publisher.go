package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// BrokerPublisher wraps events in a Message and publishes them on one channel.
type BrokerPublisher struct {
	broker  Broker
	channel string
	metrics *metrics.Metrics
}

func NewBrokerPublisher(broker Broker, channel string, m *metrics.Metrics) *BrokerPublisher {
	return &BrokerPublisher{broker: broker, channel: channel, metrics: m}
}

func (p *BrokerPublisher) Publish(ctx context.Context, tenantID uuid.UUID, eventType string, payload interface{}) error {
	msg := Message{
		ID:         uuid.New(),
		Type:       eventType,
		TenantID:   tenantID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	err := p.broker.Publish(ctx, p.channel, msg)
	p.metrics.ObserveEvent(eventType, err)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}
	return nil
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, uuid.UUID, string, interface{}) error {
	return nil
}

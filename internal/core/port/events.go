package port

import (
	"context"
	"filedepot/internal/core/domain"
)

// EventPublisher emits audit events to the broker (nats, kafka, ...)
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}

package broker

import (
	"context"

	"github.com/freshdesk/jaya-lib/pkg/models"
)

type Producer interface {
	Publish(ctx context.Context, topic string, payload models.ProductEventPayload) error
	Close() error
}

type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)
}

type HandlerFunc func(ctx context.Context, payload models.ProductEventPayload) error

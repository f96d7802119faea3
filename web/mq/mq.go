// Package mq publishes domain events after successful mutations.
package mq

import (
	"context"
)

// EventsChannel is the queue every blogpanel event goes to.
const EventsChannel = "blogpanel.events"

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// New returns a RabbitMQ backend for url, or a no-op backend when url is
// empty.
func New(url string) (Backend, error) {
	if url == "" {
		return Noop{}, nil
	}
	return NewRabbitMQClient(url)
}

// Noop drops every message.
type Noop struct{}

func (Noop) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return "", nil
}

func (Noop) Close() error { return nil }

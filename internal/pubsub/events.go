// Package pubsub fans events out from background producers, such as the
// config watcher, to the Bubble Tea update loop.
package pubsub

import (
	"context"
	"time"
)

// EventType names what happened to the payload.
type EventType string

const (
	// ChangedEvent means the watched resource was written.
	ChangedEvent EventType = "changed"
	// RemovedEvent means the watched resource was deleted or renamed away.
	RemovedEvent EventType = "removed"
	// ErrorEvent carries a producer failure in the payload.
	ErrorEvent EventType = "error"
)

// Event is one published message.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

type Publisher[T any] interface {
	Publish(eventType EventType, payload T) int
}

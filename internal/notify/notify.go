// Package notify announces finished refreshes to downstream consumers.
package notify

import (
	"context"
	"time"
)

// Event is published once per refreshed subscription
type Event struct {
	UserID      string    `json:"user_id"`
	Found       int       `json:"found"`
	Inserted    int64     `json:"inserted"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// Notifier delivers refresh events
type Notifier interface {
	Notify(ctx context.Context, event Event) error
	Close() error
}

// Noop drops every event. Used when the broker is disabled.
type Noop struct{}

func (Noop) Notify(context.Context, Event) error { return nil }

func (Noop) Close() error { return nil }

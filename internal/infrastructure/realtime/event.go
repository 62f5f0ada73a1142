// Package realtime delivers best-effort notifications to connected clients
// over websockets, fanned out through Redis, with web push as a fallback.
package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventLike    EventType = "like"
	EventMatch   EventType = "match"
	EventMessage EventType = "message"
	EventUnmatch EventType = "unmatch"
)

// Event is the JSON frame written to a user's websocket.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sentAt"`
}

func NewEvent(t EventType, payload any) Event {
	return Event{Type: t, Payload: payload, SentAt: time.Now().UTC()}
}

// Publisher hands an event to whatever transport reaches userID.
type Publisher interface {
	Publish(ctx context.Context, userID uuid.UUID, ev Event) error
}

// Presence reports whether userID has at least one open connection.
type Presence interface {
	Online(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Notifier is what use cases depend on. Notify never blocks the caller and
// never fails it.
type Notifier interface {
	Notify(userID uuid.UUID, ev Event)
}

type NopNotifier struct{}

func (NopNotifier) Notify(uuid.UUID, Event) {}

package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/logger"
)

const defaultNotifyTimeout = 5 * time.Second

// Dispatcher is the Notifier used by the API. It publishes every event to the
// websocket transport and falls back to web push when the user is offline.
type Dispatcher struct {
	publisher Publisher
	presence  Presence
	push      *WebPushSender
	timeout   time.Duration
	// onDone is called after each delivery attempt; used by tests.
	onDone func(userID uuid.UUID, ev Event, err error)
}

// NewDispatcher wires the transports. push may be nil.
func NewDispatcher(publisher Publisher, presence Presence, push *WebPushSender) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		presence:  presence,
		push:      push,
		timeout:   defaultNotifyTimeout,
	}
}

func (d *Dispatcher) Notify(userID uuid.UUID, ev Event) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic while delivering notification", "user_id", userID, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		err := d.Deliver(ctx, userID, ev)
		if err != nil {
			logger.Warn("failed to deliver notification", "user_id", userID, "type", ev.Type, "error", err)
		}
		if d.onDone != nil {
			d.onDone(userID, ev, err)
		}
	}()
}

// Deliver sends ev synchronously.
func (d *Dispatcher) Deliver(ctx context.Context, userID uuid.UUID, ev Event) error {
	online, err := d.presence.Online(ctx, userID)
	if err != nil {
		logger.Warn("presence lookup failed", "user_id", userID, "error", err)
		online = false
	}

	if online {
		return d.publisher.Publish(ctx, userID, ev)
	}
	if d.push == nil {
		return nil
	}
	_, err = d.push.Send(ctx, userID, ev)
	return err
}

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/grapeapp/grape-backend/internal/logger"
)

const (
	channelPrefix = "notify:"
	presenceKey   = "presence:connections"
)

// RedisBroker fans events out to every API instance. Each instance runs
// Run, which delivers messages addressed to users connected to its hub.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, userID uuid.UUID, ev Event) error {
	frame, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, channelPrefix+userID.String(), frame).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Run subscribes to every user channel and feeds hub until ctx is done.
func (b *RedisBroker) Run(ctx context.Context, hub *Hub) error {
	sub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to notifications: %w", err)
	}
	logger.Info("notification subscriber started", "pattern", channelPrefix+"*")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			userID, err := uuid.Parse(strings.TrimPrefix(msg.Channel, channelPrefix))
			if err != nil {
				logger.Warn("ignoring notification on unexpected channel", "channel", msg.Channel)
				continue
			}
			hub.Deliver(userID, []byte(msg.Payload))
		}
	}
}

func (b *RedisBroker) Connected(ctx context.Context, userID uuid.UUID) error {
	return b.client.HIncrBy(ctx, presenceKey, userID.String(), 1).Err()
}

func (b *RedisBroker) Disconnected(ctx context.Context, userID uuid.UUID) error {
	n, err := b.client.HIncrBy(ctx, presenceKey, userID.String(), -1).Result()
	if err != nil {
		return err
	}
	if n <= 0 {
		return b.client.HDel(ctx, presenceKey, userID.String()).Err()
	}
	return nil
}

func (b *RedisBroker) Online(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := b.client.HGet(ctx, presenceKey, userID.String()).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

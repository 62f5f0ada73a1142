package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/config"
	"github.com/grapeapp/grape-backend/internal/logger"
	"github.com/grapeapp/grape-backend/internal/repository"
)

const pushTTL = 60

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
}

// WebPushSender delivers events to the browser push subscriptions of a user.
// Subscriptions the push service reports as gone are removed.
type WebPushSender struct {
	subs       repository.PushSubscriptionRepository
	publicKey  string
	privateKey string
	subscriber string
	httpClient webpush.HTTPClient
}

func NewWebPushSender(subs repository.PushSubscriptionRepository, cfg *config.WebPushConfig) *WebPushSender {
	return &WebPushSender{
		subs:       subs,
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		subscriber: cfg.Subscriber,
		httpClient: http.DefaultClient,
	}
}

func (s *WebPushSender) PublicKey() string {
	return s.publicKey
}

// Send pushes ev to every subscription of userID and returns how many
// were accepted by their push service.
func (s *WebPushSender) Send(ctx context.Context, userID uuid.UUID, ev Event) (int, error) {
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return 0, nil
	}

	message, err := json.Marshal(payloadFor(ev))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal push payload: %w", err)
	}

	sent := 0
	for _, sub := range subs {
		resp, err := webpush.SendNotificationWithContext(ctx, message, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
		}, &webpush.Options{
			HTTPClient:      s.httpClient,
			Subscriber:      s.subscriber,
			VAPIDPublicKey:  s.publicKey,
			VAPIDPrivateKey: s.privateKey,
			TTL:             pushTTL,
		})
		if err != nil {
			logger.Warn("web push failed", "user_id", userID, "error", err)
			continue
		}
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
			logger.Info("removing expired push subscription", "user_id", userID, "subscription_id", sub.ID)
			if err := s.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				logger.Warn("failed to delete push subscription", "subscription_id", sub.ID, "error", err)
			}
		case resp.StatusCode >= 300:
			logger.Warn("push service rejected notification", "user_id", userID, "status", resp.StatusCode)
		default:
			sent++
		}
	}
	return sent, nil
}

func payloadFor(ev Event) pushPayload {
	p := pushPayload{Type: string(ev.Type), Data: ev.Payload}
	switch ev.Type {
	case EventMatch:
		p.Title, p.Body = "It's a match!", "You have a new match on Grape."
	case EventMessage:
		p.Title, p.Body = "New message", "You received a new message."
	case EventLike:
		p.Title, p.Body = "Someone likes you", "Open Grape to see who liked you."
	default:
		p.Title, p.Body = "Grape", "You have a new notification."
	}
	return p
}

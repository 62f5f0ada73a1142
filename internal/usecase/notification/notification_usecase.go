package notification

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/domain"
	svcErr "github.com/grapeapp/grape-backend/internal/errors"
	"github.com/grapeapp/grape-backend/internal/repository"
)

var (
	ErrPushDisabled    = svcErr.NotFound("web push is not configured")
	ErrInvalidEndpoint = svcErr.Validation("push endpoint must be an https URL")
)

type NotificationUseCase struct {
	subs      repository.PushSubscriptionRepository
	publicKey string
}

// NewNotificationUseCase builds the use case. An empty publicKey means web
// push is disabled on this deployment.
func NewNotificationUseCase(subs repository.PushSubscriptionRepository, publicKey string) *NotificationUseCase {
	return &NotificationUseCase{
		subs:      subs,
		publicKey: publicKey,
	}
}

// SubscribeRequest mirrors the browser PushSubscription JSON
type SubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// Subscribe registers a push endpoint for userID. Re-subscribing an endpoint
// moves it to the caller and refreshes its keys.
func (uc *NotificationUseCase) Subscribe(ctx context.Context, userID uuid.UUID, req *SubscribeRequest) (*domain.PushSubscription, error) {
	if uc.publicKey == "" {
		return nil, ErrPushDisabled
	}
	endpoint := strings.TrimSpace(req.Endpoint)
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, ErrInvalidEndpoint
	}

	sub := &domain.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   strings.TrimSpace(req.Keys.P256dh),
		Auth:     strings.TrimSpace(req.Keys.Auth),
	}
	if err := uc.subs.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save push subscription: %w", err)
	}
	return sub, nil
}

// VapidPublicKey returns the application server key browsers subscribe with.
func (uc *NotificationUseCase) VapidPublicKey() (string, error) {
	if uc.publicKey == "" {
		return "", ErrPushDisabled
	}
	return uc.publicKey, nil
}

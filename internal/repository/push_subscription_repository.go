package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/grapeapp/grape-backend/internal/domain"
)

type PushSubscriptionRepository interface {
	// Upsert stores the subscription, reassigning an existing endpoint to sub.UserID.
	Upsert(ctx context.Context, sub *domain.PushSubscription) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

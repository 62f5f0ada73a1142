package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/grapeapp/grape-backend/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// ListBetween returns the pair's messages oldest first.
	ListBetween(ctx context.Context, userA, userB uuid.UUID) ([]*domain.Message, error)
	// ListForUser returns every message sent or received by userID, newest first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Message, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/grapeapp/grape-backend/internal/domain"
)

type LikeRepository interface {
	// Create fails with domain.ErrDuplicateLike when the ordered pair exists.
	Create(ctx context.Context, like *domain.Like) error
	Exists(ctx context.Context, likerID, likedID uuid.UUID) (bool, error)
	Delete(ctx context.Context, likerID, likedID uuid.UUID) error
	// ListIncoming returns likes received by likedID, newest first.
	ListIncoming(ctx context.Context, likedID uuid.UUID, page domain.PageRequest) ([]*domain.IncomingLike, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

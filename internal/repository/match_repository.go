package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/grapeapp/grape-backend/internal/domain"
)

// MatchRepository stores matches keyed by the normalized user pair.
// At most one active row exists per pair.
type MatchRepository interface {
	// CreateIfAbsent inserts an active match for the pair. When an active
	// match already exists nothing is written and created is false.
	CreateIfAbsent(ctx context.Context, userA, userB uuid.UUID) (match *domain.Match, created bool, err error)
	GetActive(ctx context.Context, userA, userB uuid.UUID) (*domain.Match, error)
	ExistsActive(ctx context.Context, userA, userB uuid.UUID) (bool, error)
	// Deactivate soft-deletes the active match and returns it.
	Deactivate(ctx context.Context, userA, userB uuid.UUID) (*domain.Match, error)
	ListActiveForUser(ctx context.Context, userID uuid.UUID) ([]*domain.MatchWithProfile, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

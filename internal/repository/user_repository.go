package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/grapeapp/grape-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// CountExisting returns how many of the given ids belong to existing users.
	CountExisting(ctx context.Context, ids ...uuid.UUID) (int, error)
	// ApplyPatch writes only the fields set in patch and returns the stored
	// user. markComplete also sets profile_completed.
	ApplyPatch(ctx context.Context, id uuid.UUID, patch *domain.ProfilePatch, markComplete bool) (*domain.User, error)
	SetEmail(ctx context.Context, id uuid.UUID, email string, verified bool) error
	UpdateLocation(ctx context.Context, id uuid.UUID, loc domain.Location) error
	Delete(ctx context.Context, id uuid.UUID) error
}

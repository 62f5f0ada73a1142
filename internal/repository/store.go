package repository

import (
	"context"

	"github.com/google/uuid"
)

// Repositories groups the per-entity repositories of one storage backend.
type Repositories interface {
	Users() UserRepository
	Likes() LikeRepository
	Matches() MatchRepository
	Messages() MessageRepository
	PushSubscriptions() PushSubscriptionRepository
}

// Tx is a unit of work. Repositories obtained from it share the transaction.
type Tx interface {
	Repositories
	// LockPair serializes transactions touching the same unordered user pair
	// until the transaction ends.
	LockPair(ctx context.Context, userA, userB uuid.UUID) error
}

type Store interface {
	Repositories
	// WithTx runs fn in a transaction. It commits when fn returns nil and
	// rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

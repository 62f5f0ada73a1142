package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/logger"
	"github.com/grapeapp/grape-backend/internal/repository"
)

// Store is the PostgreSQL implementation of repository.Store.
type Store struct {
	db *sqlx.DB
	repos
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, repos: newRepos(db)}
}

type repos struct {
	users    *userRepository
	likes    *likeRepository
	matches  *matchRepository
	messages *messageRepository
	push     *pushSubscriptionRepository
}

func newRepos(ext sqlx.ExtContext) repos {
	return repos{
		users:    &userRepository{db: ext},
		likes:    &likeRepository{db: ext},
		matches:  &matchRepository{db: ext},
		messages: &messageRepository{db: ext},
		push:     &pushSubscriptionRepository{db: ext},
	}
}

func (r repos) Users() repository.UserRepository       { return r.users }
func (r repos) Likes() repository.LikeRepository       { return r.likes }
func (r repos) Matches() repository.MatchRepository    { return r.matches }
func (r repos) Messages() repository.MessageRepository { return r.messages }
func (r repos) PushSubscriptions() repository.PushSubscriptionRepository {
	return r.push
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txStore{tx: tx, repos: newRepos(tx)}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type txStore struct {
	tx *sqlx.Tx
	repos
}

// LockPair takes a transaction-scoped advisory lock keyed by the normalized pair.
func (t *txStore) LockPair(ctx context.Context, userA, userB uuid.UUID) error {
	lo, hi := domain.NormalizePair(userA, userB)
	key := lo.String() + ":" + hi.String()
	if _, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to lock pair: %w", err)
	}
	return nil
}

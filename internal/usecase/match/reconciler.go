package match

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/infrastructure/telemetry"
	"github.com/grapeapp/grape-backend/internal/repository"
)

// Outcome is the result of a reconciliation step.
type Outcome struct {
	// Match is the active match of the pair, nil when the like is one sided.
	Match *domain.Match
	// Created is true only for the call that inserted Match.
	Created bool
}

// Reconciler turns mutual likes into matches. Every method runs inside a
// transaction that already holds the pair lock, and relies on the active-pair
// uniqueness of MatchRepository.CreateIfAbsent rather than on prior reads.
type Reconciler struct {
	metrics *telemetry.Metrics
}

func NewReconciler(metrics *telemetry.Metrics) *Reconciler {
	return &Reconciler{metrics: metrics}
}

// OnLike is called right after likerID→likedID was stored.
func (r *Reconciler) OnLike(ctx context.Context, tx repository.Tx, likerID, likedID uuid.UUID) (*Outcome, error) {
	mutual, err := tx.Likes().Exists(ctx, likedID, likerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check reverse like: %w", err)
	}
	if !mutual {
		return &Outcome{}, nil
	}
	return r.ensureMatch(ctx, tx, likerID, likedID, telemetry.SourceMutualLike)
}

// Accept matches userID with likerID, who must have liked userID. Accepting
// a pair that is already matched returns the existing match.
func (r *Reconciler) Accept(ctx context.Context, tx repository.Tx, userID, likerID uuid.UUID) (*Outcome, error) {
	if userID == likerID {
		return nil, domain.ErrCannotMatchSelf
	}
	liked, err := tx.Likes().Exists(ctx, likerID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check like: %w", err)
	}
	if !liked {
		return nil, domain.ErrLikeNotFound
	}
	return r.ensureMatch(ctx, tx, likerID, userID, telemetry.SourceAccept)
}

func (r *Reconciler) ensureMatch(ctx context.Context, tx repository.Tx, a, b uuid.UUID, source string) (*Outcome, error) {
	m, created, err := tx.Matches().CreateIfAbsent(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	if created {
		r.metrics.MatchCreated(source)
	}
	return &Outcome{Match: m, Created: created}, nil
}

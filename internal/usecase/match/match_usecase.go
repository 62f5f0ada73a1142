package match

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/infrastructure/realtime"
	"github.com/grapeapp/grape-backend/internal/infrastructure/telemetry"
	"github.com/grapeapp/grape-backend/internal/repository"
)

type MatchUseCase struct {
	store    repository.Store
	notifier realtime.Notifier
	metrics  *telemetry.Metrics
}

func NewMatchUseCase(
	store repository.Store,
	notifier realtime.Notifier,
	metrics *telemetry.Metrics,
) *MatchUseCase {
	return &MatchUseCase{
		store:    store,
		notifier: notifier,
		metrics:  metrics,
	}
}

// CreateMatchRequest represents an explicit match request
type CreateMatchRequest struct {
	User1ID uuid.UUID `json:"user1_id" binding:"required"`
	User2ID uuid.UUID `json:"user2_id" binding:"required"`
}

// MatchEventPayload is pushed to both users of a new match
type MatchEventPayload struct {
	Match       *domain.Match         `json:"match"`
	MatchedUser *domain.PublicProfile `json:"matched_user,omitempty"`
}

func (uc *MatchUseCase) MatchExists(ctx context.Context, userA, userB uuid.UUID) (bool, error) {
	return uc.store.Matches().ExistsActive(ctx, userA, userB)
}

// CreateMatch matches two users directly. It fails with ErrAlreadyMatched
// when the pair already has an active match.
func (uc *MatchUseCase) CreateMatch(ctx context.Context, callerID uuid.UUID, req *CreateMatchRequest) (*domain.Match, error) {
	a, b := req.User1ID, req.User2ID
	if a == b {
		return nil, domain.ErrCannotMatchSelf
	}
	if callerID != a && callerID != b {
		return nil, domain.ErrForbidden
	}

	n, err := uc.store.Users().CountExisting(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("failed to check users: %w", err)
	}
	if n < 2 {
		return nil, domain.ErrUsersNotFound
	}

	var m *domain.Match
	err = uc.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.LockPair(ctx, a, b); err != nil {
			return fmt.Errorf("failed to lock pair: %w", err)
		}
		var created bool
		var err error
		m, created, err = tx.Matches().CreateIfAbsent(ctx, a, b)
		if err != nil {
			return err
		}
		if !created {
			return domain.ErrAlreadyMatched
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.MatchCreated(telemetry.SourceManual)
	uc.NotifyMatch(ctx, m)
	return m, nil
}

// Unmatch deactivates the pair's active match. A pair without an active
// match yields ErrMatchNotFound, so repeating the call is reported.
func (uc *MatchUseCase) Unmatch(ctx context.Context, callerID, userA, userB uuid.UUID) (*domain.Match, error) {
	if callerID != userA && callerID != userB {
		return nil, domain.ErrForbidden
	}

	m, err := uc.store.Matches().Deactivate(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	uc.metrics.Unmatched()

	other, _ := m.GetOtherUserID(callerID)
	uc.notifier.Notify(other, realtime.NewEvent(realtime.EventUnmatch, m))
	return m, nil
}

// ListMatchesForUser returns the caller's active matches, newest first.
func (uc *MatchUseCase) ListMatchesForUser(ctx context.Context, callerID, userID uuid.UUID) ([]*domain.MatchWithProfile, error) {
	if callerID != userID {
		return nil, domain.ErrForbidden
	}
	matches, err := uc.store.Matches().ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	if matches == nil {
		matches = []*domain.MatchWithProfile{}
	}
	return matches, nil
}

// NotifyMatch tells both users about a new match, each with the other's profile.
func (uc *MatchUseCase) NotifyMatch(ctx context.Context, m *domain.Match) {
	for _, pair := range [][2]uuid.UUID{{m.User1ID, m.User2ID}, {m.User2ID, m.User1ID}} {
		payload := MatchEventPayload{Match: m}
		if other, err := uc.store.Users().GetByID(ctx, pair[1]); err == nil {
			payload.MatchedUser = other.Public()
		}
		uc.notifier.Notify(pair[0], realtime.NewEvent(realtime.EventMatch, payload))
	}
}

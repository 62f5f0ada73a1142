package like

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/infrastructure/realtime"
	"github.com/grapeapp/grape-backend/internal/infrastructure/telemetry"
	"github.com/grapeapp/grape-backend/internal/repository"
	"github.com/grapeapp/grape-backend/internal/usecase/match"
	"github.com/grapeapp/grape-backend/internal/utils/pagination"
)

type LikeUseCase struct {
	store      repository.Store
	reconciler *match.Reconciler
	matches    *match.MatchUseCase
	notifier   realtime.Notifier
	metrics    *telemetry.Metrics
}

func NewLikeUseCase(
	store repository.Store,
	reconciler *match.Reconciler,
	matches *match.MatchUseCase,
	notifier realtime.Notifier,
	metrics *telemetry.Metrics,
) *LikeUseCase {
	return &LikeUseCase{
		store:      store,
		reconciler: reconciler,
		matches:    matches,
		notifier:   notifier,
		metrics:    metrics,
	}
}

// LikeRequest represents a like action
type LikeRequest struct {
	LikedID     uuid.UUID `json:"likedId" binding:"required"`
	IsSuperLike bool      `json:"isSuperLike"`
}

// LikeResponse represents like result
type LikeResponse struct {
	Like    *domain.Like  `json:"like"`
	IsMatch bool          `json:"isMatch"`
	Match   *domain.Match `json:"match,omitempty"`
}

// AcceptResponse represents the result of accepting a like
type AcceptResponse struct {
	Match   *domain.Match `json:"match"`
	Created bool          `json:"created"`
}

// IncomingLikesPage is one page of the who-liked-me list
type IncomingLikesPage struct {
	Likes      []*domain.IncomingLike `json:"likes"`
	NextCursor string                 `json:"nextCursor,omitempty"`
}

// LikeEventPayload is pushed to the liked user
type LikeEventPayload struct {
	LikerID     uuid.UUID `json:"likerId"`
	IsSuperLike bool      `json:"isSuperLike"`
}

// RecordLike stores likerID→likedID and matches the pair when the reverse
// like already exists. Both steps share one transaction holding the pair lock.
func (uc *LikeUseCase) RecordLike(ctx context.Context, likerID uuid.UUID, req *LikeRequest) (*LikeResponse, error) {
	likedID := req.LikedID
	if likerID == likedID {
		return nil, domain.ErrCannotLikeSelf
	}

	n, err := uc.store.Users().CountExisting(ctx, likerID, likedID)
	if err != nil {
		return nil, fmt.Errorf("failed to check users: %w", err)
	}
	if n < 2 {
		return nil, domain.ErrUsersNotFound
	}

	like := &domain.Like{LikerID: likerID, LikedID: likedID, IsSuperLike: req.IsSuperLike}
	var outcome *match.Outcome

	err = uc.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.LockPair(ctx, likerID, likedID); err != nil {
			return fmt.Errorf("failed to lock pair: %w", err)
		}
		if err := tx.Likes().Create(ctx, like); err != nil {
			return err
		}
		var err error
		outcome, err = uc.reconciler.OnLike(ctx, tx, likerID, likedID)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.LikeRecorded(req.IsSuperLike)

	resp := &LikeResponse{Like: like, IsMatch: outcome.Match != nil, Match: outcome.Match}
	if outcome.Created {
		uc.matches.NotifyMatch(ctx, outcome.Match)
	} else if outcome.Match == nil {
		uc.notifier.Notify(likedID, realtime.NewEvent(realtime.EventLike, LikeEventPayload{
			LikerID:     likerID,
			IsSuperLike: req.IsSuperLike,
		}))
	}
	return resp, nil
}

// RemoveLike withdraws a like the caller gave.
func (uc *LikeUseCase) RemoveLike(ctx context.Context, likerID, likedID uuid.UUID) error {
	return uc.store.Likes().Delete(ctx, likerID, likedID)
}

// RejectLike dismisses a like the caller received.
func (uc *LikeUseCase) RejectLike(ctx context.Context, userID, likerID uuid.UUID) error {
	return uc.store.Likes().Delete(ctx, likerID, userID)
}

// AcceptLike matches the caller with someone who liked them.
func (uc *LikeUseCase) AcceptLike(ctx context.Context, userID, likerID uuid.UUID) (*AcceptResponse, error) {
	var outcome *match.Outcome
	err := uc.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.LockPair(ctx, userID, likerID); err != nil {
			return fmt.Errorf("failed to lock pair: %w", err)
		}
		var err error
		outcome, err = uc.reconciler.Accept(ctx, tx, userID, likerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if outcome.Created {
		uc.matches.NotifyMatch(ctx, outcome.Match)
	}
	return &AcceptResponse{Match: outcome.Match, Created: outcome.Created}, nil
}

// ListIncomingLikes returns the likes userID received, newest first.
func (uc *LikeUseCase) ListIncomingLikes(ctx context.Context, userID uuid.UUID, cursor string, limit int) (*IncomingLikesPage, error) {
	c, err := pagination.Decode(cursor)
	if err != nil {
		return nil, domain.ErrInvalidCursor
	}
	limit = pagination.ClampLimit(limit)

	page := domain.PageRequest{Limit: limit + 1}
	if !c.IsZero() {
		before := c.Time()
		page.BeforeTime, page.BeforeID = &before, c.ID
	}

	likes, err := uc.store.Likes().ListIncoming(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}

	out := &IncomingLikesPage{Likes: likes}
	if out.Likes == nil {
		out.Likes = []*domain.IncomingLike{}
	}
	if len(likes) > limit {
		out.Likes = likes[:limit]
		last := out.Likes[limit-1]
		next, err := pagination.Encode(pagination.FromRow(last.LikedAt, last.LikeID))
		if err != nil {
			return nil, err
		}
		out.NextCursor = next
	}
	return out, nil
}

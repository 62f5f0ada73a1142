package profile

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/logger"
	"github.com/grapeapp/grape-backend/internal/repository"
)

type ProfileUseCase struct {
	store repository.Store
	now   func() time.Time
}

func NewProfileUseCase(store repository.Store) *ProfileUseCase {
	return &ProfileUseCase{
		store: store,
		now:   time.Now,
	}
}

// ProfileResponse is what a user sees of someone else's profile
type ProfileResponse struct {
	*domain.PublicProfile
	Age        int      `json:"age"`
	DistanceKm *float64 `json:"distance_km"`
}

// UpdateLocationRequest represents a location update
type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// GetUser returns the full record to its owner and the public projection to anyone else.
func (uc *ProfileUseCase) GetUser(ctx context.Context, callerID, userID uuid.UUID) (any, error) {
	user, err := uc.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if callerID == userID {
		return user, nil
	}

	resp := &ProfileResponse{
		PublicProfile: user.Public(),
		Age:           user.Age(uc.now()),
	}

	caller, err := uc.store.Users().GetByID(ctx, callerID)
	if err == nil && caller.Location != nil && user.Location != nil {
		d := math.Round(calculateDistance(
			caller.Location.Latitude, caller.Location.Longitude,
			user.Location.Latitude, user.Location.Longitude,
		)*10) / 10
		resp.DistanceKm = &d
	}
	return resp, nil
}

// UpdateUser applies a partial profile update. Nothing is written when the
// patch is invalid.
func (uc *ProfileUseCase) UpdateUser(ctx context.Context, callerID, userID uuid.UUID, patch *domain.ProfilePatch) (*domain.User, error) {
	if callerID != userID {
		return nil, domain.ErrForbidden
	}
	if patch.Empty() {
		return nil, domain.ErrNoFieldsToUpdate
	}
	if err := patch.Validate(uc.now()); err != nil {
		return nil, err
	}

	return uc.store.Users().ApplyPatch(ctx, userID, patch, false)
}

func (uc *ProfileUseCase) UpdateLocation(ctx context.Context, userID uuid.UUID, req *UpdateLocationRequest) error {
	if req.Latitude == nil || req.Longitude == nil {
		return domain.ErrInvalidLocation
	}
	loc := domain.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if !loc.Valid() {
		return domain.ErrInvalidLocation
	}
	return uc.store.Users().UpdateLocation(ctx, userID, loc)
}

// DeleteUser removes the account and everything that references it in one
// transaction.
func (uc *ProfileUseCase) DeleteUser(ctx context.Context, callerID, userID uuid.UUID) error {
	if callerID != userID {
		return domain.ErrForbidden
	}

	err := uc.store.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return err
		}
		if err := tx.Likes().DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete likes: %w", err)
		}
		if err := tx.Matches().DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete matches: %w", err)
		}
		if err := tx.Messages().DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		if err := tx.PushSubscriptions().DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete push subscriptions: %w", err)
		}
		return tx.Users().Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	logger.Info("user deleted", "user_id", userID)
	return nil
}

// calculateDistance returns the great-circle distance in km
func calculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371 // km
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)
	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}

package profile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/repository"
	"github.com/grapeapp/grape-backend/internal/repository/memory"
)

func ptr[T any](v T) *T { return &v }

func seedUser(t *testing.T, store *memory.Store, phone string) *domain.User {
	t.Helper()
	u := domain.NewMinimalUser(&phone, nil, false)
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func TestUpdateUser(t *testing.T) {
	store := memory.NewStore()
	uc := NewProfileUseCase(store)
	ctx := context.Background()
	u := seedUser(t, store, "+14155550100")

	updated, err := uc.UpdateUser(ctx, u.ID, u.ID, &domain.ProfilePatch{
		FirstName: ptr("Ana"),
		Prompts:   &[]string{"Two truths and a lie"},
		Latitude:  ptr(40.7128),
		Longitude: ptr(-74.0060),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", updated.FirstName)

	stored, err := store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Two truths and a lie"}, stored.Prompts)
	require.NotNil(t, stored.Location)
	assert.InDelta(t, 40.7128, stored.Location.Latitude, 1e-9)
}

// racingUsers runs write once, just before the first read or patch reaches
// the underlying repository.
type racingUsers struct {
	repository.UserRepository
	once  sync.Once
	write func()
}

func (u *racingUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u.once.Do(u.write)
	return u.UserRepository.GetByID(ctx, id)
}

func (u *racingUsers) ApplyPatch(ctx context.Context, id uuid.UUID, patch *domain.ProfilePatch, markComplete bool) (*domain.User, error) {
	u.once.Do(u.write)
	return u.UserRepository.ApplyPatch(ctx, id, patch, markComplete)
}

type racingStore struct {
	*memory.Store
	users *racingUsers
}

func (s *racingStore) Users() repository.UserRepository { return s.users }

func TestUpdateUser_KeepsConcurrentEmailAndLocation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	u := seedUser(t, store, "+14155550100")

	users := &racingUsers{UserRepository: store.Users(), write: func() {
		require.NoError(t, store.Users().SetEmail(ctx, u.ID, "ana@example.com", true))
		require.NoError(t, store.Users().UpdateLocation(ctx, u.ID, domain.Location{Latitude: 1, Longitude: 2}))
	}}
	uc := NewProfileUseCase(&racingStore{Store: store, users: users})

	updated, err := uc.UpdateUser(ctx, u.ID, u.ID, &domain.ProfilePatch{JobTitle: ptr("Pilot")})
	require.NoError(t, err)
	require.NotNil(t, updated.JobTitle)
	assert.Equal(t, "Pilot", *updated.JobTitle)

	stored, err := store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Email)
	assert.Equal(t, "ana@example.com", *stored.Email)
	assert.True(t, stored.EmailVerified)
	require.NotNil(t, stored.Location)
	assert.Equal(t, domain.Location{Latitude: 1, Longitude: 2}, *stored.Location)
	require.NotNil(t, stored.JobTitle)
	assert.Equal(t, "Pilot", *stored.JobTitle)
}

func TestUpdateUser_RejectsWithoutWriting(t *testing.T) {
	store := memory.NewStore()
	uc := NewProfileUseCase(store)
	ctx := context.Background()
	u := seedUser(t, store, "+14155550100")

	seven := []string{"1", "2", "3", "4", "5", "6", "7"}
	_, err := uc.UpdateUser(ctx, u.ID, u.ID, &domain.ProfilePatch{FirstName: ptr("Ana"), Pictures: &seven})
	assert.ErrorIs(t, err, domain.ErrTooManyPictures)

	stored, err := store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlaceholderFirstName, stored.FirstName)
	assert.Empty(t, stored.Pictures)

	_, err = uc.UpdateUser(ctx, u.ID, u.ID, &domain.ProfilePatch{})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToUpdate)

	_, err = uc.UpdateUser(ctx, uuid.New(), u.ID, &domain.ProfilePatch{FirstName: ptr("Eve")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGetUser(t *testing.T) {
	store := memory.NewStore()
	uc := NewProfileUseCase(store)
	uc.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	me := seedUser(t, store, "+14155550100")
	other := seedUser(t, store, "+14155550101")
	require.NoError(t, store.Users().UpdateLocation(ctx, me.ID, domain.Location{Latitude: 52.5200, Longitude: 13.4050}))
	require.NoError(t, store.Users().UpdateLocation(ctx, other.ID, domain.Location{Latitude: 48.8566, Longitude: 2.3522}))

	self, err := uc.GetUser(ctx, me.ID, me.ID)
	require.NoError(t, err)
	assert.IsType(t, &domain.User{}, self)

	got, err := uc.GetUser(ctx, me.ID, other.ID)
	require.NoError(t, err)
	resp, ok := got.(*ProfileResponse)
	require.True(t, ok)
	assert.Equal(t, other.ID, resp.ID)
	assert.Equal(t, 26, resp.Age)
	require.NotNil(t, resp.DistanceKm)
	assert.InDelta(t, 878, *resp.DistanceKm, 5)

	_, err = uc.GetUser(ctx, me.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateLocation(t *testing.T) {
	store := memory.NewStore()
	uc := NewProfileUseCase(store)
	ctx := context.Background()
	u := seedUser(t, store, "+14155550100")

	err := uc.UpdateLocation(ctx, u.ID, &UpdateLocationRequest{Latitude: ptr(100.0), Longitude: ptr(0.0)})
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)

	require.NoError(t, uc.UpdateLocation(ctx, u.ID, &UpdateLocationRequest{Latitude: ptr(0.0), Longitude: ptr(0.0)}))
	stored, _ := store.Users().GetByID(ctx, u.ID)
	assert.Equal(t, &domain.Location{}, stored.Location)

	err = uc.UpdateLocation(ctx, uuid.New(), &UpdateLocationRequest{Latitude: ptr(1.0), Longitude: ptr(1.0)})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDeleteUser_Cascades(t *testing.T) {
	store := memory.NewStore()
	uc := NewProfileUseCase(store)
	ctx := context.Background()
	a := seedUser(t, store, "+14155550100")
	b := seedUser(t, store, "+14155550101")

	require.NoError(t, store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.Likes().Create(ctx, &domain.Like{LikerID: a.ID, LikedID: b.ID}); err != nil {
			return err
		}
		if err := tx.Likes().Create(ctx, &domain.Like{LikerID: b.ID, LikedID: a.ID}); err != nil {
			return err
		}
		if _, _, err := tx.Matches().CreateIfAbsent(ctx, a.ID, b.ID); err != nil {
			return err
		}
		return tx.Messages().Create(ctx, &domain.Message{SenderID: a.ID, ReceiverID: b.ID, Content: "hi"})
	}))

	assert.ErrorIs(t, uc.DeleteUser(ctx, b.ID, a.ID), domain.ErrForbidden)
	require.NoError(t, uc.DeleteUser(ctx, a.ID, a.ID))

	_, err := store.Users().GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	exists, err := store.Likes().Exists(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	matched, err := store.Matches().ExistsActive(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, matched)
	msgs, err := store.Messages().ListForUser(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.ErrorIs(t, uc.DeleteUser(ctx, a.ID, a.ID), domain.ErrUserNotFound)
}

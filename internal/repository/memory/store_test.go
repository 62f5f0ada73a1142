package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/repository"
)

func seedUser(t *testing.T, s *Store, phone string) *domain.User {
	t.Helper()
	u := domain.NewMinimalUser(&phone, nil, false)
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestStore_UserContactsAreUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUser(t, s, "+100")

	phone := "+100"
	err := s.Users().Create(ctx, domain.NewMinimalUser(&phone, nil, false))
	assert.ErrorIs(t, err, domain.ErrPhoneTaken)

	email := "A@grape.app"
	u := seedUser(t, s, "+200")
	require.NoError(t, s.Users().SetEmail(ctx, u.ID, email, true))

	other := seedUser(t, s, "+300")
	assert.ErrorIs(t, s.Users().SetEmail(ctx, other.ID, "a@grape.app", true), domain.ErrEmailTaken)

	found, err := s.Users().GetByEmail(ctx, "a@GRAPE.app")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := NewStore()
	u := seedUser(t, s, "+100")

	got, err := s.Users().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	got.FirstName = "Mutated"
	got.Pictures = append(got.Pictures, "x")

	again, err := s.Users().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlaceholderFirstName, again.FirstName)
	assert.Empty(t, again.Pictures)
}

func TestStore_LikeConstraints(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, b := seedUser(t, s, "+1"), seedUser(t, s, "+2")

	require.NoError(t, s.Likes().Create(ctx, &domain.Like{LikerID: a.ID, LikedID: b.ID}))
	assert.ErrorIs(t, s.Likes().Create(ctx, &domain.Like{LikerID: a.ID, LikedID: b.ID}), domain.ErrDuplicateLike)
	assert.ErrorIs(t, s.Likes().Create(ctx, &domain.Like{LikerID: a.ID, LikedID: a.ID}), domain.ErrCannotLikeSelf)
	assert.ErrorIs(t, s.Likes().Create(ctx, &domain.Like{LikerID: a.ID, LikedID: uuid.New()}), domain.ErrUserNotFound)

	require.NoError(t, s.Likes().Delete(ctx, a.ID, b.ID))
	assert.ErrorIs(t, s.Likes().Delete(ctx, a.ID, b.ID), domain.ErrLikeNotFound)
}

func TestStore_MatchUniquePerActivePair(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, b := seedUser(t, s, "+1"), seedUser(t, s, "+2")

	m1, created, err := s.Matches().CreateIfAbsent(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)

	m2, created, err := s.Matches().CreateIfAbsent(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m1.ID, m2.ID)

	_, err = s.Matches().Deactivate(ctx, b.ID, a.ID)
	require.NoError(t, err)

	m3, created, err := s.Matches().CreateIfAbsent(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, m1.ID, m3.ID)
}

func TestStore_WithTxRollsBack(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, b := seedUser(t, s, "+1"), seedUser(t, s, "+2")
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		require.NoError(t, tx.Likes().Create(ctx, &domain.Like{LikerID: a.ID, LikedID: b.ID}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := s.Likes().Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_DeleteUserCascades(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, b, c := seedUser(t, s, "+1"), seedUser(t, s, "+2"), seedUser(t, s, "+3")

	require.NoError(t, s.Likes().Create(ctx, &domain.Like{LikerID: a.ID, LikedID: b.ID}))
	require.NoError(t, s.Likes().Create(ctx, &domain.Like{LikerID: c.ID, LikedID: a.ID}))
	_, _, err := s.Matches().CreateIfAbsent(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, s.Messages().Create(ctx, &domain.Message{SenderID: a.ID, ReceiverID: b.ID, Content: "hi"}))

	require.NoError(t, s.Users().Delete(ctx, a.ID))

	incoming, err := s.Likes().ListIncoming(ctx, b.ID, domain.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, incoming)
	matches, err := s.Matches().ListActiveForUser(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, matches)
	msgs, err := s.Messages().ListForUser(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStore_ConcurrentTransactionsSerialize(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, b := seedUser(t, s, "+1"), seedUser(t, s, "+2")

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithTx(ctx, func(tx repository.Tx) error {
				_, created, err := tx.Matches().CreateIfAbsent(ctx, a.ID, b.ID)
				if created {
					mu.Lock()
					createdCount++
					mu.Unlock()
				}
				return err
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, createdCount)
}

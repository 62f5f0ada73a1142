package like

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grapeapp/grape-backend/internal/domain"
	svcErr "github.com/grapeapp/grape-backend/internal/errors"
	"github.com/grapeapp/grape-backend/internal/infrastructure/realtime"
	"github.com/grapeapp/grape-backend/internal/repository/memory"
	"github.com/grapeapp/grape-backend/internal/usecase/match"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events map[uuid.UUID][]realtime.EventType
}

func (r *recordingNotifier) Notify(userID uuid.UUID, ev realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[userID] = append(r.events[userID], ev.Type)
}

func (r *recordingNotifier) to(userID uuid.UUID) []realtime.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[userID]
}

type fixture struct {
	store    *memory.Store
	notifier *recordingNotifier
	uc       *LikeUseCase
	matches  *match.MatchUseCase
}

func newFixture() *fixture {
	store := memory.NewStore()
	n := &recordingNotifier{events: map[uuid.UUID][]realtime.EventType{}}
	matches := match.NewMatchUseCase(store, n, nil)
	return &fixture{
		store:    store,
		notifier: n,
		matches:  matches,
		uc:       NewLikeUseCase(store, match.NewReconciler(nil), matches, n, nil),
	}
}

func (f *fixture) users(t *testing.T, n int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, n)
	for i := range ids {
		phone := fmt.Sprintf("+1415555%04d", i)
		u := domain.NewMinimalUser(&phone, nil, false)
		require.NoError(t, f.store.Users().Create(context.Background(), u))
		ids[i] = u.ID
	}
	return ids
}

func TestRecordLike_OneSidedThenMutual(t *testing.T) {
	f := newFixture()
	ids := f.users(t, 2)
	a, b := ids[0], ids[1]
	ctx := context.Background()

	first, err := f.uc.RecordLike(ctx, a, &LikeRequest{LikedID: b, IsSuperLike: true})
	require.NoError(t, err)
	assert.False(t, first.IsMatch)
	assert.Nil(t, first.Match)
	assert.True(t, first.Like.IsSuperLike)
	assert.NotZero(t, first.Like.ID)
	assert.Equal(t, []realtime.EventType{realtime.EventLike}, f.notifier.to(b))

	second, err := f.uc.RecordLike(ctx, b, &LikeRequest{LikedID: a})
	require.NoError(t, err)
	assert.True(t, second.IsMatch)
	require.NotNil(t, second.Match)
	assert.True(t, second.Match.IsActive)
	assert.Contains(t, f.notifier.to(a), realtime.EventMatch)
	assert.Contains(t, f.notifier.to(b), realtime.EventMatch)

	exists, err := f.matches.MatchExists(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRecordLike_Errors(t *testing.T) {
	f := newFixture()
	ids := f.users(t, 2)
	a, b := ids[0], ids[1]
	ctx := context.Background()

	_, err := f.uc.RecordLike(ctx, a, &LikeRequest{LikedID: a})
	assert.ErrorIs(t, err, domain.ErrCannotLikeSelf)
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(err))

	_, err = f.uc.RecordLike(ctx, a, &LikeRequest{LikedID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrUsersNotFound)

	_, err = f.uc.RecordLike(ctx, a, &LikeRequest{LikedID: b})
	require.NoError(t, err)
	_, err = f.uc.RecordLike(ctx, a, &LikeRequest{LikedID: b})
	assert.ErrorIs(t, err, domain.ErrDuplicateLike)
	assert.Equal(t, svcErr.KindConflict, svcErr.KindOf(err))
}

func TestRemoveAndRejectLike(t *testing.T) {
	f := newFixture()
	ids := f.users(t, 3)
	a, b, c := ids[0], ids[1], ids[2]
	ctx := context.Background()

	_, err := f.uc.RecordLike(ctx, a, &LikeRequest{LikedID: b})
	require.NoError(t, err)
	_, err = f.uc.RecordLike(ctx, c, &LikeRequest{LikedID: b})
	require.NoError(t, err)

	require.NoError(t, f.uc.RemoveLike(ctx, a, b))
	assert.ErrorIs(t, f.uc.RemoveLike(ctx, a, b), domain.ErrLikeNotFound)

	require.NoError(t, f.uc.RejectLike(ctx, b, c))
	assert.ErrorIs(t, f.uc.RejectLike(ctx, b, c), domain.ErrLikeNotFound)

	page, err := f.uc.ListIncomingLikes(ctx, b, "", 0)
	require.NoError(t, err)
	assert.Empty(t, page.Likes)
}

func TestAcceptLike(t *testing.T) {
	f := newFixture()
	ids := f.users(t, 2)
	a, b := ids[0], ids[1]
	ctx := context.Background()

	_, err := f.uc.AcceptLike(ctx, b, a)
	assert.ErrorIs(t, err, domain.ErrLikeNotFound)

	_, err = f.uc.RecordLike(ctx, a, &LikeRequest{LikedID: b})
	require.NoError(t, err)

	accepted, err := f.uc.AcceptLike(ctx, b, a)
	require.NoError(t, err)
	assert.True(t, accepted.Created)

	again, err := f.uc.AcceptLike(ctx, b, a)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, accepted.Match.ID, again.Match.ID)

	page, err := f.uc.ListIncomingLikes(ctx, b, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Likes, 1)
	assert.True(t, page.Likes[0].IsMatch)
	assert.Equal(t, a, page.Likes[0].Liker.ID)
}

func TestUnmatch_HidesMatchButKeepsIncomingLikes(t *testing.T) {
	f := newFixture()
	ids := f.users(t, 2)
	a, b := ids[0], ids[1]
	ctx := context.Background()

	_, err := f.uc.RecordLike(ctx, a, &LikeRequest{LikedID: b})
	require.NoError(t, err)
	mutual, err := f.uc.RecordLike(ctx, b, &LikeRequest{LikedID: a})
	require.NoError(t, err)
	require.True(t, mutual.IsMatch)

	_, err = f.matches.Unmatch(ctx, b, b, a)
	require.NoError(t, err)

	for _, id := range []uuid.UUID{a, b} {
		list, err := f.matches.ListMatchesForUser(ctx, id, id)
		require.NoError(t, err)
		assert.Empty(t, list)
	}

	page, err := f.uc.ListIncomingLikes(ctx, b, "", 0)
	require.NoError(t, err)
	require.Len(t, page.Likes, 1)
	assert.Equal(t, a, page.Likes[0].Liker.ID)
	assert.False(t, page.Likes[0].IsMatch)

	page, err = f.uc.ListIncomingLikes(ctx, a, "", 0)
	require.NoError(t, err)
	require.Len(t, page.Likes, 1)
	assert.Equal(t, b, page.Likes[0].Liker.ID)
	assert.False(t, page.Likes[0].IsMatch)
}

func TestRematchAfterUnmatch(t *testing.T) {
	f := newFixture()
	ids := f.users(t, 2)
	a, b := ids[0], ids[1]
	ctx := context.Background()

	_, err := f.uc.RecordLike(ctx, a, &LikeRequest{LikedID: b})
	require.NoError(t, err)
	first, err := f.uc.RecordLike(ctx, b, &LikeRequest{LikedID: a})
	require.NoError(t, err)
	require.True(t, first.IsMatch)

	_, err = f.matches.Unmatch(ctx, a, a, b)
	require.NoError(t, err)

	// Likes survive an unmatch, so liking again is a duplicate.
	_, err = f.uc.RecordLike(ctx, a, &LikeRequest{LikedID: b})
	assert.ErrorIs(t, err, domain.ErrDuplicateLike)

	require.NoError(t, f.uc.RemoveLike(ctx, a, b))
	again, err := f.uc.RecordLike(ctx, a, &LikeRequest{LikedID: b})
	require.NoError(t, err)
	require.True(t, again.IsMatch)
	assert.NotEqual(t, first.Match.ID, again.Match.ID)
}

func TestConcurrentMutualLikesCreateOneMatch(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture()
		ids := f.users(t, 2)
		a, b := ids[0], ids[1]
		ctx := context.Background()

		var wg sync.WaitGroup
		var mu sync.Mutex
		matchIDs := map[int64]bool{}
		record := func(id int64) {
			mu.Lock()
			matchIDs[id] = true
			mu.Unlock()
		}

		wg.Add(3)
		go func() {
			defer wg.Done()
			resp, err := f.uc.RecordLike(ctx, a, &LikeRequest{LikedID: b})
			if assert.NoError(t, err) && resp.Match != nil {
				record(resp.Match.ID)
			}
		}()
		go func() {
			defer wg.Done()
			resp, err := f.uc.RecordLike(ctx, b, &LikeRequest{LikedID: a})
			if assert.NoError(t, err) && resp.Match != nil {
				record(resp.Match.ID)
			}
		}()
		go func() {
			defer wg.Done()
			resp, err := f.uc.AcceptLike(ctx, b, a)
			if err == nil {
				record(resp.Match.ID)
			} else {
				assert.ErrorIs(t, err, domain.ErrLikeNotFound)
			}
		}()
		wg.Wait()

		list, err := f.matches.ListMatchesForUser(ctx, a, a)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Len(t, matchIDs, 1)
		assert.True(t, matchIDs[list[0].Match.ID])
	}
}

func TestListIncomingLikes_Pagination(t *testing.T) {
	f := newFixture()
	ids := f.users(t, 6)
	target := ids[0]
	ctx := context.Background()

	for _, liker := range ids[1:] {
		_, err := f.uc.RecordLike(ctx, liker, &LikeRequest{LikedID: target})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	var seen []uuid.UUID
	cursor := ""
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5)
		page, err := f.uc.ListIncomingLikes(ctx, target, cursor, 2)
		require.NoError(t, err)
		for _, l := range page.Likes {
			seen = append(seen, l.Liker.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	// Newest first.
	assert.Equal(t, []uuid.UUID{ids[5], ids[4], ids[3], ids[2], ids[1]}, seen)

	_, err := f.uc.ListIncomingLikes(ctx, target, "%%%", 2)
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
}

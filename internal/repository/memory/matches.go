package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/domain"
)

type matchRepository struct {
	run runner
	now func() time.Time
}

func (st *state) activeMatch(userA, userB uuid.UUID) *domain.Match {
	user1ID, user2ID := domain.NormalizePair(userA, userB)
	for _, m := range st.matches {
		if m.IsActive && m.User1ID == user1ID && m.User2ID == user2ID {
			return m
		}
	}
	return nil
}

func (r *matchRepository) CreateIfAbsent(ctx context.Context, userA, userB uuid.UUID) (*domain.Match, bool, error) {
	var (
		match   *domain.Match
		created bool
	)
	err := r.run(func(st *state) error {
		user1ID, user2ID := domain.NormalizePair(userA, userB)
		if user1ID == user2ID {
			return domain.ErrCannotMatchSelf
		}
		if _, ok := st.users[user1ID]; !ok {
			return domain.ErrUserNotFound
		}
		if _, ok := st.users[user2ID]; !ok {
			return domain.ErrUserNotFound
		}
		if existing := st.activeMatch(user1ID, user2ID); existing != nil {
			cp := *existing
			match = &cp
			return nil
		}

		now := r.now()
		st.nextMatchID++
		m := &domain.Match{
			ID:        st.nextMatchID,
			User1ID:   user1ID,
			User2ID:   user2ID,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.matches = append(st.matches, m)
		cp := *m
		match, created = &cp, true
		return nil
	})
	return match, created, err
}

func (r *matchRepository) GetActive(ctx context.Context, userA, userB uuid.UUID) (*domain.Match, error) {
	var match *domain.Match
	err := r.run(func(st *state) error {
		m := st.activeMatch(userA, userB)
		if m == nil {
			return domain.ErrMatchNotFound
		}
		cp := *m
		match = &cp
		return nil
	})
	return match, err
}

func (r *matchRepository) ExistsActive(ctx context.Context, userA, userB uuid.UUID) (bool, error) {
	var exists bool
	err := r.run(func(st *state) error {
		exists = st.activeMatch(userA, userB) != nil
		return nil
	})
	return exists, err
}

func (r *matchRepository) Deactivate(ctx context.Context, userA, userB uuid.UUID) (*domain.Match, error) {
	var match *domain.Match
	err := r.run(func(st *state) error {
		m := st.activeMatch(userA, userB)
		if m == nil {
			return domain.ErrMatchNotFound
		}
		m.IsActive = false
		m.UpdatedAt = r.now()
		cp := *m
		match = &cp
		return nil
	})
	return match, err
}

func (r *matchRepository) ListActiveForUser(ctx context.Context, userID uuid.UUID) ([]*domain.MatchWithProfile, error) {
	var out []*domain.MatchWithProfile
	err := r.run(func(st *state) error {
		var active []*domain.Match
		for _, m := range st.matches {
			if m.IsActive && m.HasUser(userID) {
				active = append(active, m)
			}
		}
		sort.Slice(active, func(i, j int) bool {
			return after(active[i].CreatedAt, active[i].ID, active[j].CreatedAt, active[j].ID)
		})

		out = make([]*domain.MatchWithProfile, 0, len(active))
		for _, m := range active {
			other, _ := m.GetOtherUserID(userID)
			cp := *m
			out = append(out, &domain.MatchWithProfile{Match: &cp, MatchedUser: st.profile(other)})
		}
		return nil
	})
	return out, err
}

func (r *matchRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.run(func(st *state) error {
		st.deleteMatchesOf(userID)
		return nil
	})
}

func (st *state) deleteMatchesOf(userID uuid.UUID) {
	kept := st.matches[:0]
	for _, m := range st.matches {
		if !m.HasUser(userID) {
			kept = append(kept, m)
		}
	}
	st.matches = kept
}

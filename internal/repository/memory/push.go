package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/domain"
)

type pushSubscriptionRepository struct {
	run runner
	now func() time.Time
}

func (r *pushSubscriptionRepository) Upsert(ctx context.Context, sub *domain.PushSubscription) error {
	return r.run(func(st *state) error {
		if _, ok := st.users[sub.UserID]; !ok {
			return domain.ErrUserNotFound
		}
		if existing, ok := st.push[sub.Endpoint]; ok {
			sub.ID, sub.CreatedAt = existing.ID, existing.CreatedAt
		} else {
			st.nextPushID++
			sub.ID, sub.CreatedAt = st.nextPushID, r.now()
		}
		cp := *sub
		st.push[sub.Endpoint] = &cp
		return nil
	})
}

func (r *pushSubscriptionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.PushSubscription, error) {
	var out []*domain.PushSubscription
	err := r.run(func(st *state) error {
		for _, s := range st.push {
			if s.UserID == userID {
				cp := *s
				out = append(out, &cp)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
		return nil
	})
	return out, err
}

func (r *pushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	return r.run(func(st *state) error {
		delete(st.push, endpoint)
		return nil
	})
}

func (r *pushSubscriptionRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.run(func(st *state) error {
		st.deletePushOf(userID)
		return nil
	})
}

func (st *state) deletePushOf(userID uuid.UUID) {
	for k, s := range st.push {
		if s.UserID == userID {
			delete(st.push, k)
		}
	}
}

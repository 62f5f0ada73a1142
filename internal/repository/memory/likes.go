package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/domain"
)

type likeRepository struct {
	run runner
	now func() time.Time
}

func (r *likeRepository) Create(ctx context.Context, like *domain.Like) error {
	return r.run(func(st *state) error {
		if like.LikerID == like.LikedID {
			return domain.ErrCannotLikeSelf
		}
		if _, ok := st.users[like.LikerID]; !ok {
			return domain.ErrUserNotFound
		}
		if _, ok := st.users[like.LikedID]; !ok {
			return domain.ErrUserNotFound
		}
		key := likeKey{liker: like.LikerID, liked: like.LikedID}
		if _, ok := st.likes[key]; ok {
			return domain.ErrDuplicateLike
		}
		st.nextLikeID++
		like.ID = st.nextLikeID
		like.CreatedAt = r.now()
		cp := *like
		st.likes[key] = &cp
		return nil
	})
}

func (r *likeRepository) Exists(ctx context.Context, likerID, likedID uuid.UUID) (bool, error) {
	var exists bool
	err := r.run(func(st *state) error {
		_, exists = st.likes[likeKey{liker: likerID, liked: likedID}]
		return nil
	})
	return exists, err
}

func (r *likeRepository) Delete(ctx context.Context, likerID, likedID uuid.UUID) error {
	return r.run(func(st *state) error {
		key := likeKey{liker: likerID, liked: likedID}
		if _, ok := st.likes[key]; !ok {
			return domain.ErrLikeNotFound
		}
		delete(st.likes, key)
		return nil
	})
}

func (r *likeRepository) ListIncoming(ctx context.Context, likedID uuid.UUID, page domain.PageRequest) ([]*domain.IncomingLike, error) {
	var out []*domain.IncomingLike
	err := r.run(func(st *state) error {
		var likes []*domain.Like
		for _, l := range st.likes {
			if l.LikedID == likedID {
				likes = append(likes, l)
			}
		}
		sort.Slice(likes, func(i, j int) bool {
			return after(likes[i].CreatedAt, likes[i].ID, likes[j].CreatedAt, likes[j].ID)
		})

		out = make([]*domain.IncomingLike, 0, len(likes))
		for _, l := range likes {
			if page.BeforeTime != nil && !after(*page.BeforeTime, page.BeforeID, l.CreatedAt, l.ID) {
				continue
			}
			if page.Limit > 0 && len(out) >= page.Limit {
				break
			}
			out = append(out, &domain.IncomingLike{
				LikeID:      l.ID,
				IsSuperLike: l.IsSuperLike,
				LikedAt:     l.CreatedAt,
				IsMatch:     st.activeMatch(l.LikerID, l.LikedID) != nil,
				Liker:       st.profile(l.LikerID),
			})
		}
		return nil
	})
	return out, err
}

func (r *likeRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.run(func(st *state) error {
		st.deleteLikesOf(userID)
		return nil
	})
}

func (st *state) deleteLikesOf(userID uuid.UUID) {
	for k := range st.likes {
		if k.liker == userID || k.liked == userID {
			delete(st.likes, k)
		}
	}
}

// after reports whether (t1, id1) sorts strictly after (t2, id2).
func after(t1 time.Time, id1 int64, t2 time.Time, id2 int64) bool {
	if !t1.Equal(t2) {
		return t1.After(t2)
	}
	return id1 > id2
}

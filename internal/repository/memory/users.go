package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/domain"
	svcErr "github.com/grapeapp/grape-backend/internal/errors"
)

type userRepository struct {
	run runner
	now func() time.Time
}

func copyUser(u *domain.User) *domain.User {
	cp := *u
	cp.Pictures = append([]string{}, u.Pictures...)
	cp.Prompts = append([]string{}, u.Prompts...)
	if u.Location != nil {
		loc := *u.Location
		cp.Location = &loc
	}
	return &cp
}

// checkContacts enforces the unique phone and email constraints.
func (st *state) checkContacts(u *domain.User) error {
	for id, other := range st.users {
		if id == u.ID {
			continue
		}
		if u.PhoneNumber != nil && other.PhoneNumber != nil && *u.PhoneNumber == *other.PhoneNumber {
			return domain.ErrPhoneTaken
		}
		if u.Email != nil && other.Email != nil && strings.EqualFold(*u.Email, *other.Email) {
			return domain.ErrEmailTaken
		}
	}
	return nil
}

func checkLists(u *domain.User) error {
	if len(u.Pictures) > domain.MaxPictures {
		return domain.ErrTooManyPictures
	}
	if len(u.Prompts) > domain.MaxPrompts {
		return domain.ErrTooManyPrompts
	}
	return nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.run(func(st *state) error {
		if _, ok := st.users[user.ID]; ok {
			return svcErr.Conflict("user already exists")
		}
		if err := st.checkContacts(user); err != nil {
			return err
		}
		if err := checkLists(user); err != nil {
			return err
		}
		now := r.now()
		user.CreatedAt, user.UpdatedAt = now, now
		if user.Pictures == nil {
			user.Pictures = []string{}
		}
		if user.Prompts == nil {
			user.Prompts = []string{}
		}
		st.users[user.ID] = copyUser(user)
		return nil
	})
}

func (r *userRepository) find(pred func(u *domain.User) bool) (*domain.User, error) {
	var found *domain.User
	err := r.run(func(st *state) error {
		for _, u := range st.users {
			if pred(u) {
				found = copyUser(u)
				return nil
			}
		}
		return domain.ErrUserNotFound
	})
	return found, err
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.PhoneNumber != nil && *u.PhoneNumber == phone })
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email != nil && strings.EqualFold(*u.Email, email) })
}

func (r *userRepository) CountExisting(ctx context.Context, ids ...uuid.UUID) (int, error) {
	count := 0
	err := r.run(func(st *state) error {
		seen := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			if _, ok := st.users[id]; ok && !seen[id] {
				seen[id] = true
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *userRepository) ApplyPatch(ctx context.Context, id uuid.UUID, patch *domain.ProfilePatch, markComplete bool) (*domain.User, error) {
	var out *domain.User
	err := r.run(func(st *state) error {
		existing, ok := st.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		u := copyUser(existing)
		patch.ApplyTo(u)
		if markComplete {
			u.ProfileCompleted = true
		}
		if err := checkLists(u); err != nil {
			return err
		}
		u.UpdatedAt = r.now()
		st.users[id] = u
		out = copyUser(u)
		return nil
	})
	return out, err
}

func (r *userRepository) SetEmail(ctx context.Context, id uuid.UUID, email string, verified bool) error {
	return r.run(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		probe := &domain.User{ID: id, Email: &email}
		if err := st.checkContacts(probe); err != nil {
			return err
		}
		u.Email = &email
		u.EmailVerified = verified
		u.UpdatedAt = r.now()
		return nil
	})
}

func (r *userRepository) UpdateLocation(ctx context.Context, id uuid.UUID, loc domain.Location) error {
	return r.run(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		u.Location = &loc
		u.UpdatedAt = r.now()
		return nil
	})
}

// Delete removes the user and, like the SQL foreign keys, everything that references it.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.run(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return domain.ErrUserNotFound
		}
		delete(st.users, id)
		st.deleteLikesOf(id)
		st.deleteMatchesOf(id)
		st.deleteMessagesOf(id)
		st.deletePushOf(id)
		return nil
	})
}

func (st *state) profile(id uuid.UUID) *domain.PublicProfile {
	u, ok := st.users[id]
	if !ok {
		return nil
	}
	return copyUser(u).Public()
}

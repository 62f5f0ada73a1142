// Package memory is an in-process implementation of repository.Store.
// It enforces the same uniqueness and reference rules as the SQL schema.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/repository"
)

type likeKey struct {
	liker uuid.UUID
	liked uuid.UUID
}

type state struct {
	users    map[uuid.UUID]*domain.User
	likes    map[likeKey]*domain.Like
	matches  []*domain.Match
	messages []*domain.Message
	push     map[string]*domain.PushSubscription

	nextLikeID    int64
	nextMatchID   int64
	nextMessageID int64
	nextPushID    int64
}

func newState() *state {
	return &state{
		users: make(map[uuid.UUID]*domain.User),
		likes: make(map[likeKey]*domain.Like),
		push:  make(map[string]*domain.PushSubscription),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:         make(map[uuid.UUID]*domain.User, len(s.users)),
		likes:         make(map[likeKey]*domain.Like, len(s.likes)),
		matches:       make([]*domain.Match, 0, len(s.matches)),
		messages:      make([]*domain.Message, 0, len(s.messages)),
		push:          make(map[string]*domain.PushSubscription, len(s.push)),
		nextLikeID:    s.nextLikeID,
		nextMatchID:   s.nextMatchID,
		nextMessageID: s.nextMessageID,
		nextPushID:    s.nextPushID,
	}
	for id, u := range s.users {
		c.users[id] = copyUser(u)
	}
	for k, l := range s.likes {
		cp := *l
		c.likes[k] = &cp
	}
	for _, m := range s.matches {
		cp := *m
		c.matches = append(c.matches, &cp)
	}
	for _, m := range s.messages {
		cp := *m
		c.messages = append(c.messages, &cp)
	}
	for k, p := range s.push {
		cp := *p
		c.push[k] = &cp
	}
	return c
}

// runner executes fn against the state visible to a repository.
type runner func(fn func(st *state) error) error

type repos struct {
	users    *userRepository
	likes    *likeRepository
	matches  *matchRepository
	messages *messageRepository
	push     *pushSubscriptionRepository
}

func newRepos(run runner, now func() time.Time) repos {
	return repos{
		users:    &userRepository{run: run, now: now},
		likes:    &likeRepository{run: run, now: now},
		matches:  &matchRepository{run: run, now: now},
		messages: &messageRepository{run: run, now: now},
		push:     &pushSubscriptionRepository{run: run, now: now},
	}
}

func (r repos) Users() repository.UserRepository       { return r.users }
func (r repos) Likes() repository.LikeRepository       { return r.likes }
func (r repos) Matches() repository.MatchRepository    { return r.matches }
func (r repos) Messages() repository.MessageRepository { return r.messages }
func (r repos) PushSubscriptions() repository.PushSubscriptionRepository {
	return r.push
}

// Store serializes every operation behind one mutex. A transaction holds the
// mutex for its whole duration and works on a copy that replaces the live
// state on commit, so repositories of the Store itself must not be used
// from inside WithTx.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
	repos
}

func NewStore() *Store {
	s := &Store{st: newState(), now: time.Now}
	s.repos = newRepos(s.run, s.clock)
	return s
}

// clock matches the microsecond precision of timestamptz.
func (s *Store) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Store) run(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.st.clone()
	tx := &txStore{repos: newRepos(func(f func(st *state) error) error { return f(work) }, s.clock)}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) Close() error { return nil }

type txStore struct {
	repos
}

// LockPair is a no-op: transactions already run one at a time.
func (t *txStore) LockPair(ctx context.Context, userA, userB uuid.UUID) error {
	return ctx.Err()
}

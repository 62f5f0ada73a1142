package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrChallengeNotFound = errors.New("challenge not found or expired")

// Challenge is a pending one-time code. Only the bcrypt hash of the code is kept.
type Challenge struct {
	Contact  string
	CodeHash []byte
	Attempts int
}

// CodeStore keeps pending challenges until they expire.
type CodeStore interface {
	Save(ctx context.Context, token string, ch Challenge, ttl time.Duration) error
	Get(ctx context.Context, token string) (*Challenge, error)
	// IncrementAttempts records a verification attempt and returns the new count.
	IncrementAttempts(ctx context.Context, token string) (int, error)
	Delete(ctx context.Context, token string) error
}

const redisChallengePrefix = "otp:challenge:"

// RedisCodeStore stores challenges as hashes that Redis expires on its own.
type RedisCodeStore struct {
	client *redis.Client
}

func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func (s *RedisCodeStore) Save(ctx context.Context, token string, ch Challenge, ttl time.Duration) error {
	key := redisChallengePrefix + token
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"contact":  ch.Contact,
			"hash":     string(ch.CodeHash),
			"attempts": ch.Attempts,
		})
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}
	return nil
}

func (s *RedisCodeStore) Get(ctx context.Context, token string) (*Challenge, error) {
	fields, err := s.client.HGetAll(ctx, redisChallengePrefix+token).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrChallengeNotFound
	}
	attempts, _ := strconv.Atoi(fields["attempts"])
	return &Challenge{
		Contact:  fields["contact"],
		CodeHash: []byte(fields["hash"]),
		Attempts: attempts,
	}, nil
}

// incrementAttempts bumps the counter only while the challenge exists, so an
// expired key is never recreated without a TTL.
var incrementAttempts = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
return redis.call("HINCRBY", KEYS[1], "attempts", 1)
`)

func (s *RedisCodeStore) IncrementAttempts(ctx context.Context, token string) (int, error) {
	n, err := incrementAttempts.Run(ctx, s.client, []string{redisChallengePrefix + token}).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to record attempt: %w", err)
	}
	if n < 0 {
		return 0, ErrChallengeNotFound
	}
	return n, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, redisChallengePrefix+token).Err()
}

// MemoryCodeStore is a process-local CodeStore. Expired entries are dropped
// on access and by Sweep.
type MemoryCodeStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	ch        Challenge
	expiresAt time.Time
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryCodeStore) Save(ctx context.Context, token string, ch Challenge, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{ch: ch, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryCodeStore) live(token string) (memoryEntry, bool) {
	e, ok := s.entries[token]
	if !ok {
		return e, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, token)
		return e, false
	}
	return e, true
}

func (s *MemoryCodeStore) Get(ctx context.Context, token string) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(token)
	if !ok {
		return nil, ErrChallengeNotFound
	}
	ch := e.ch
	return &ch, nil
}

func (s *MemoryCodeStore) IncrementAttempts(ctx context.Context, token string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(token)
	if !ok {
		return 0, ErrChallengeNotFound
	}
	e.ch.Attempts++
	s.entries[token] = e
	return e.ch.Attempts, nil
}

func (s *MemoryCodeStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}

// Sweep removes every expired entry.
func (s *MemoryCodeStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token := range s.entries {
		s.live(token)
	}
}

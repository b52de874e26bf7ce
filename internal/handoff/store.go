package handoff

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"firetechnics/site/internal/domain"
)

// Store keeps payloads under opaque tokens for the lifetime of a browsing session.
type Store interface {
	Put(ctx context.Context, p Payload) (string, error)
	Get(ctx context.Context, token string) (Payload, error)
}

// sweepInterval bounds how often the memory stores scan for expired entries.
const sweepInterval = time.Minute

// tokenNamespace scopes the name based tokens minted by TokenFor.
var tokenNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("firetechnics:handoff"))

// TokenFor derives the token of a payload from its content. Packaging the same level
// again yields the same token, so reloading a page replaces entries instead of adding.
func TokenFor(p Payload) (string, error) {
	p.CreatedAt = time.Time{}
	raw, err := Encode(p)
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(tokenNamespace, raw).String(), nil
}

type memoryStore struct {
	mutex     sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	entries   map[string]memoryEntry
	nextSweep time.Time
}

type memoryEntry struct {
	payload   Payload
	expiresAt time.Time
}

// NewMemoryStore keeps payloads in process memory. A zero ttl never expires them.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *memoryStore) Put(ctx context.Context, p Payload) (string, error) {
	token, err := TokenFor(p)
	if err != nil {
		return "", err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	s.sweep(now)

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl)
	}
	s.entries[token] = memoryEntry{payload: p, expiresAt: expiresAt}
	return token, nil
}

// sweep drops expired entries at most once per sweepInterval. Callers hold the mutex.
func (s *memoryStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Before(s.nextSweep) {
		return
	}
	s.nextSweep = now.Add(sweepInterval)
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

func (s *memoryStore) Get(ctx context.Context, token string) (Payload, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return Payload{}, domain.ErrMissingHandoffData
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.entries, token)
		return Payload{}, domain.ErrMissingHandoffData
	}
	return e.payload, nil
}

type redisStore struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

// NewRedisStore keeps payloads in Redis so any instance can serve the level view.
func NewRedisStore(redisClient *redis.Client, ttl time.Duration) Store {
	return &redisStore{
		redisClient: redisClient,
		keyPrefix:   "firetechnics:handoff:",
		ttl:         ttl,
	}
}

func (s *redisStore) Put(ctx context.Context, p Payload) (string, error) {
	raw, err := Encode(p)
	if err != nil {
		return "", err
	}

	token, err := TokenFor(p)
	if err != nil {
		return "", err
	}
	if err := s.redisClient.Set(ctx, s.keyPrefix+token, raw, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store handoff payload: %w", err)
	}
	return token, nil
}

func (s *redisStore) Get(ctx context.Context, token string) (Payload, error) {
	if _, err := uuid.Parse(token); err != nil {
		return Payload{}, domain.ErrMissingHandoffData
	}

	raw, err := s.redisClient.Get(ctx, s.keyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Payload{}, domain.ErrMissingHandoffData
		}
		return Payload{}, fmt.Errorf("failed to load handoff payload: %w", err)
	}
	return Decode(raw)
}

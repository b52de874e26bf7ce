package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"firetechnics/site/internal/navigation"
)

// StateManager persists the navigation snapshot of each browsing session.
type StateManager interface {
	Load(ctx context.Context, sessionID string) (navigation.Snapshot, error)
	Save(ctx context.Context, sessionID string, snap navigation.Snapshot) error
}

type redisStateManager struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

func NewRedisStateManager(redisClient *redis.Client, ttl time.Duration) StateManager {
	return &redisStateManager{
		redisClient: redisClient,
		keyPrefix:   "firetechnics:nav:session:",
		ttl:         ttl,
	}
}

func (s *redisStateManager) Load(ctx context.Context, sessionID string) (navigation.Snapshot, error) {
	key := s.keyPrefix + sessionID
	val, err := s.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return navigation.Snapshot{}, nil // fresh session
		}
		return navigation.Snapshot{}, fmt.Errorf("failed to load navigation state for session %s: %w", sessionID, err)
	}

	var snap navigation.Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return navigation.Snapshot{}, fmt.Errorf("failed to parse navigation state for session %s: %w", sessionID, err)
	}

	return snap, nil
}

func (s *redisStateManager) Save(ctx context.Context, sessionID string, snap navigation.Snapshot) error {
	val, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode navigation state: %w", err)
	}

	key := s.keyPrefix + sessionID
	if err := s.redisClient.Set(ctx, key, val, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save navigation state for session %s: %w", sessionID, err)
	}
	return nil
}

// sweepInterval bounds how often the memory manager scans for expired snapshots.
const sweepInterval = time.Minute

type memoryStateManager struct {
	mutex     sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	snapshots map[string]memorySnapshot
	nextSweep time.Time
}

type memorySnapshot struct {
	snap      navigation.Snapshot
	expiresAt time.Time
}

// NewMemoryStateManager keeps snapshots in process memory. A zero ttl never expires them.
func NewMemoryStateManager(ttl time.Duration) StateManager {
	return &memoryStateManager{
		ttl:       ttl,
		now:       time.Now,
		snapshots: make(map[string]memorySnapshot),
	}
}

func (s *memoryStateManager) Load(ctx context.Context, sessionID string) (navigation.Snapshot, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	m, ok := s.snapshots[sessionID]
	if !ok {
		return navigation.Snapshot{}, nil
	}
	if !m.expiresAt.IsZero() && s.now().After(m.expiresAt) {
		delete(s.snapshots, sessionID)
		return navigation.Snapshot{}, nil
	}
	return cloneSnapshot(m.snap), nil
}

func (s *memoryStateManager) Save(ctx context.Context, sessionID string, snap navigation.Snapshot) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	s.sweep(now)

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl)
	}
	s.snapshots[sessionID] = memorySnapshot{snap: cloneSnapshot(snap), expiresAt: expiresAt}
	return nil
}

// sweep drops expired snapshots at most once per sweepInterval. Callers hold the mutex.
func (s *memoryStateManager) sweep(now time.Time) {
	if s.ttl <= 0 || now.Before(s.nextSweep) {
		return
	}
	s.nextSweep = now.Add(sweepInterval)
	for id, m := range s.snapshots {
		if now.After(m.expiresAt) {
			delete(s.snapshots, id)
		}
	}
}

func cloneSnapshot(snap navigation.Snapshot) navigation.Snapshot {
	snap.History = append([]navigation.State(nil), snap.History...)
	return snap
}

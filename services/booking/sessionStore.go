package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// SessionStore parks workflow sessions between the prepare and confirm requests.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	// Lock claims the session for one request. The returned func releases it.
	Lock(ctx context.Context, id string) (func(), error)
}

const sessionLockTTL = 30 * time.Second

// RedisSessionStore keeps sessions as JSON strings under "booking:session:<id>".
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(id string) string { return "booking:session:" + id }

func (r *RedisSessionStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal booking session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store booking session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Load(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read booking session %s: %w", id, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse booking session %s: %w", id, err)
	}
	return &s, nil
}

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (r *RedisSessionStore) Lock(ctx context.Context, id string) (func(), error) {
	key := sessionKey(id) + ":lock"
	token := uuid.New().String()
	ok, err := r.client.SetNX(ctx, key, token, sessionLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to lock booking session %s: %w", id, err)
	}
	if !ok {
		return nil, ErrSessionBusy
	}
	return func() {
		// the request context may already be done
		_ = releaseScript.Run(context.Background(), r.client, []string{key}, token).Err()
	}, nil
}

// MemorySessionStore is the single-process store used when Redis is not configured.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memorySession
	locked   map[string]bool
	now      func() time.Time
}

type memorySession struct {
	data    []byte
	expires time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &MemorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]memorySession),
		locked:   make(map[string]bool),
		now:      time.Now,
	}
}

// Save stores a JSON snapshot so callers never share a live *Session.
func (m *MemorySessionStore) Save(_ context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal booking session: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.sessions {
		if now.After(e.expires) {
			delete(m.sessions, id)
		}
	}
	m.sessions[s.ID] = memorySession{data: data, expires: now.Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok || m.now().After(e.expires) {
		return nil, ErrSessionNotFound
	}
	var s Session
	if err := json.Unmarshal(e.data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse booking session %s: %w", id, err)
	}
	return &s, nil
}

func (m *MemorySessionStore) Lock(_ context.Context, id string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked[id] {
		return nil, ErrSessionBusy
	}
	m.locked[id] = true
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.locked, id)
			m.mu.Unlock()
		})
	}, nil
}

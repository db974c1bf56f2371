package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"
)

// StateStore remembers the one-time state values handed to the provider.
// Consume succeeds at most once per saved state.
type StateStore interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (bool, error)
}

// NewState returns 32 random bytes, URL-safe base64 encoded.
func NewState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RedisStateStore keeps states in Redis so any replica can finish the flow.
type RedisStateStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{Client: client, Prefix: "oauth-state:"}
}

func (s *RedisStateStore) Save(ctx context.Context, state string, ttl time.Duration) error {
	return s.Client.Set(ctx, s.Prefix+state, "1", ttl).Err()
}

// Consume uses GETDEL so two callbacks racing on one state cannot both win.
func (s *RedisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	err := s.Client.GetDel(ctx, s.Prefix+state).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MemoryStateStore is the single-process fallback used without Redis.
type MemoryStateStore struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, struct{}]
}

// NewMemoryStateStore starts the cache's expiry loop; call Stop when done.
func NewMemoryStateStore(defaultTTL time.Duration) *MemoryStateStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, struct{}](defaultTTL),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go cache.Start()
	return &MemoryStateStore{cache: cache}
}

func (s *MemoryStateStore) Save(_ context.Context, state string, ttl time.Duration) error {
	s.cache.Set(state, struct{}{}, ttl)
	return nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache.Get(state) == nil {
		return false, nil
	}
	s.cache.Delete(state)
	return true, nil
}

func (s *MemoryStateStore) Stop() { s.cache.Stop() }

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "ays/internal/domain/session"
)

const keyPrefix = "ays:session:"

// RedisStore keeps sessions in Redis as JSON with a TTL of the remaining session age,
// so several server instances can share them.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

// Compile-time check that *RedisStore satisfies Store.
var _ Store = (*RedisStore)(nil)

// RedisConfig holds the connection settings.
type RedisConfig struct {
	Address  string
	Username string
	Password string
}

// NewRedisStore connects to Redis and checks the connection.
// PRE: cfg.Address is host:port
// POST: the server answered PING
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Address, err)
	}
	return &RedisStore{rdb: rdb, now: time.Now}, nil
}

// Get loads and decodes the session.
func (r *RedisStore) Get(ctx context.Context, id string) (domain.Session, error) {
	raw, err := r.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	if s.IsExpired(r.now()) {
		return domain.Session{}, ErrNotFound
	}
	return s, nil
}

// Save encodes the session and sets it with a TTL ending at CreatedAt + MaxAge.
// PRE: s.Validate() == nil
func (r *RedisStore) Save(ctx context.Context, s domain.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	ttl := s.CreatedAt.Add(domain.MaxAge).Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, s.ID)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, keyPrefix+s.ID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// Delete removes the session key.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}

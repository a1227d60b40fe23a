package clientstate

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/simp-lee/smarttenders/internal/domain"
)

const redisKeyPrefix = "smarttenders:client:"

// redisStore implements Store on Redis strings with native expiry.
type redisStore struct {
	rdb *redis.Client
}

// NewRedisStore returns a Store backed by rdb.
func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func redisKey(clientID, key string) string {
	return redisKeyPrefix + clientID + ":" + key
}

func (s *redisStore) Get(ctx context.Context, clientID, key string) ([]byte, error) {
	if err := validKey(clientID, key); err != nil {
		return nil, err
	}
	b, err := s.rdb.Get(ctx, redisKey(clientID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "client state storage error", err)
	}
	return b, nil
}

func (s *redisStore) Set(ctx context.Context, clientID, key string, value []byte, ttl time.Duration) error {
	if err := validKey(clientID, key); err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, redisKey(clientID, key), value, ttl).Err(); err != nil {
		return domain.NewAppError(domain.CodeInternal, "client state storage error", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, clientID, key string) error {
	if err := validKey(clientID, key); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, redisKey(clientID, key)).Err(); err != nil {
		return domain.NewAppError(domain.CodeInternal, "client state storage error", err)
	}
	return nil
}

// Clear removes every key of clientID. SCAN is used so large keyspaces are
// never blocked by KEYS.
func (s *redisStore) Clear(ctx context.Context, clientID string) error {
	if clientID == "" {
		return domain.NewAppError(domain.CodeValidation, "client id is required", nil)
	}
	match := redisKeyPrefix + clientID + ":*"
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return domain.NewAppError(domain.CodeInternal, "client state storage error", err)
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return domain.NewAppError(domain.CodeInternal, "client state storage error", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

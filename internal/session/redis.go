package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps state in Redis with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

// NewRedisStore constructs a RedisStore. Every save extends the key to ttl.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(userID uint) string {
	return fmt.Sprintf("session:%d", userID)
}

func (s *RedisStore) Load(ctx context.Context, userID uint) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *RedisStore) Save(ctx context.Context, userID uint, data []byte) error {
	return s.client.Set(ctx, key(userID), data, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, userID uint) error {
	return s.client.Del(ctx, key(userID)).Err()
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

package slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis stores each slot as a plain string key with no expiry.
type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

func (r *Redis) Slot(key string) *RedisSlot {
	return &RedisSlot{client: r.Client, key: key}
}

type RedisSlot struct {
	client *redis.Client
	key    string
}

func (s *RedisSlot) Key() string {
	return s.key
}

func (s *RedisSlot) Read(ctx context.Context) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("slot: failed to get %q: %w", s.key, err)
	}

	return b, true, nil
}

func (s *RedisSlot) Write(ctx context.Context, b []byte) error {
	if err := s.client.Set(ctx, s.key, b, 0).Err(); err != nil {
		return fmt.Errorf("slot: failed to set %q: %w", s.key, err)
	}

	return nil
}

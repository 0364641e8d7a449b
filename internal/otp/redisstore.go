package otp

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/wildcat/internal/model"
)

// RedisStore keeps pending codes in Redis hashes that expire with the code.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a store using client. Keys are namespaced under "otp:".
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: "otp:"}
}

func (s *RedisStore) key(email string) string { return s.prefix + email }

func (s *RedisStore) Save(ctx context.Context, c *model.LoginCode) error {
	key := s.key(c.Email)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"hash", c.CodeHash,
			"issued", c.IssuedAt.UnixNano(),
			"expires", c.ExpiresAt.UnixNano(),
			"attempts", 0,
		)
		pipe.ExpireAt(ctx, key, c.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving login code: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, email string) (*model.LoginCode, error) {
	vals, err := s.client.HGetAll(ctx, s.key(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting login code: %w", err)
	}
	if len(vals) == 0 {
		return nil, nil
	}

	issued, err := strconv.ParseInt(vals["issued"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing issued time: %w", err)
	}
	expires, err := strconv.ParseInt(vals["expires"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing expiry: %w", err)
	}
	attempts, _ := strconv.Atoi(vals["attempts"])

	return &model.LoginCode{
		Email:     email,
		CodeHash:  vals["hash"],
		IssuedAt:  time.Unix(0, issued),
		ExpiresAt: time.Unix(0, expires),
		Attempts:  attempts,
	}, nil
}

func (s *RedisStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	key := s.key(email)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing login code attempts: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	n, err := s.client.HIncrBy(ctx, key, "attempts", 1).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing login code attempts: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("deleting login code: %w", err)
	}
	return nil
}

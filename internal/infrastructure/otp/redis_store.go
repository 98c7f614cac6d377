package otp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otp:"

type RedisCodeStore struct {
	client *redis.Client
}

func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func (s *RedisCodeStore) Save(ctx context.Context, verificationID string, entry Entry, ttl time.Duration) error {
	key := keyPrefix + verificationID
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"phone", entry.PhoneNumber,
			"code_hash", entry.CodeHash,
			"attempts", entry.Attempts,
		)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save verification: %w", err)
	}
	return nil
}

func (s *RedisCodeStore) Get(ctx context.Context, verificationID string) (*Entry, error) {
	fields, err := s.client.HGetAll(ctx, keyPrefix+verificationID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load verification: %w", err)
	}
	return entryFromFields(fields)
}

// Consume reads and deletes the hash inside MULTI/EXEC. The entry is a hash,
// so GETDEL does not apply; the transaction gives the same single winner.
func (s *RedisCodeStore) Consume(ctx context.Context, verificationID string) (*Entry, error) {
	key := keyPrefix + verificationID
	var fields *redis.MapStringStringCmd
	var deleted *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, key)
		deleted = pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to consume verification: %w", err)
	}
	if deleted.Val() == 0 {
		return nil, ErrNotFound
	}
	return entryFromFields(fields.Val())
}

func entryFromFields(fields map[string]string) (*Entry, error) {
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return nil, fmt.Errorf("corrupt verification attempts: %w", err)
	}
	return &Entry{
		PhoneNumber: fields["phone"],
		CodeHash:    fields["code_hash"],
		Attempts:    attempts,
	}, nil
}

func (s *RedisCodeStore) IncrementAttempts(ctx context.Context, verificationID string) (int, error) {
	key := keyPrefix + verificationID
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, ErrNotFound
	}
	n, err := s.client.HIncrBy(ctx, key, "attempts", 1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment attempts: %w", err)
	}
	return int(n), nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, verificationID string) error {
	err := s.client.Del(ctx, keyPrefix+verificationID).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

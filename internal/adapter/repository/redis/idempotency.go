package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "gotransfer:idempotency:"

	// pendingMarker occupies a key while the first request holding it is in flight.
	pendingMarker = "processing"
)

// Recorder receives per-command Redis metrics.
type Recorder interface {
	RedisOperation(operation string)
	RedisError(operation string)
}

// IdempotencyStore implements usecase.IdempotencyStore using Redis.
type IdempotencyStore struct {
	client   *redis.Client
	prefix   string
	recorder Recorder
}

// Option configures an IdempotencyStore.
type Option func(*IdempotencyStore)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *IdempotencyStore) { s.prefix = prefix }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *IdempotencyStore) { s.recorder = r }
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client, opts ...Option) *IdempotencyStore {
	s := &IdempotencyStore{
		client: client,
		prefix: defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckAndSet claims key for the caller.
//
// When the key is already present it returns (true, value). The value is the
// stored response, or the pending marker while the first request is in flight.
// When the key is free it is claimed with response (or the pending marker when
// response is nil) and (false, nil) is returned.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	value := any(pendingMarker)
	if response != nil {
		value = response
	}

	s.observe("setnx")
	claimed, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
	if err != nil {
		s.fail("setnx")
		return false, nil, err
	}
	if claimed {
		return false, nil, nil
	}

	s.observe("get")
	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired or released between the two commands; report it as in flight.
		return true, []byte(pendingMarker), nil
	}
	if err != nil {
		s.fail("get")
		return false, nil, err
	}

	return true, existing, nil
}

// Update stores the final response for key.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.observe("set")
	if err := s.client.Set(ctx, s.prefix+key, response, ttl).Err(); err != nil {
		s.fail("set")
		return err
	}
	return nil
}

// Release deletes key.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	s.observe("del")
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		s.fail("del")
		return err
	}
	return nil
}

func (s *IdempotencyStore) observe(op string) {
	if s.recorder != nil {
		s.recorder.RedisOperation(op)
	}
}

func (s *IdempotencyStore) fail(op string) {
	if s.recorder != nil {
		s.recorder.RedisError(op)
	}
}

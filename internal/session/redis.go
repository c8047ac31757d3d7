package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore keeps one token per profile in Redis.
type RedisStore struct {
	redis   *redis.Client
	profile string
	ttl     time.Duration
	tracer  trace.Tracer
}

// NewRedisStore panics on a nil client. A zero ttl keeps the key until cleared.
func NewRedisStore(client *redis.Client, profile string, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if profile == "" {
		profile = "default"
	}
	return &RedisStore{
		redis:   client,
		profile: profile,
		ttl:     ttl,
		tracer:  otel.Tracer("mypatients.internal.session.redis"),
	}
}

func (s *RedisStore) key() string {
	return fmt.Sprintf("mypatients:session:%s", s.profile)
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	ctx, span := s.tracer.Start(ctx, "session.load_token")
	defer span.End()

	token, err := s.redis.Get(ctx, s.key()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("session: redis get: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Save(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "session.save_token")
	defer span.End()

	if err := s.redis.Set(ctx, s.key(), token, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "session.clear_token")
	defer span.End()

	if err := s.redis.Del(ctx, s.key()).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}

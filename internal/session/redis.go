package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/symptom-scout/internal/triage"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

const (
	DefaultTTL = 2 * time.Hour
	// lockTTL bounds how long a crashed request can block a session.
	lockTTL = 2 * time.Minute
)

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	logger *logging.Logger
}

func NewRedisStore(client *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("symptom-scout.session"),
		logger: logger,
	}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*triage.Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load: %w", err)
	}

	var sess triage.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *triage.Session) error {
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "session.delete")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(id), lockKey(id), transcriptKey(id)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to delete: %w", err)
	}
	return nil
}

func (s *RedisStore) Lock(ctx context.Context, id string) (func(), error) {
	ctx, span := s.tracer.Start(ctx, "session.lock")
	defer span.End()

	token := uuid.NewString()
	ok, err := s.redis.SetNX(ctx, lockKey(id), token, lockTTL).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		// The request context may already be cancelled when the turn ends.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, s.redis, []string{lockKey(id)}, token).Err(); err != nil {
			s.logger.Warn("session lock release failed", "session_id", id, "error", err)
		}
	}, nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func lockKey(id string) string {
	return fmt.Sprintf("session_lock:%s", id)
}

package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/symptom-scout/internal/chat"
	appconfig "github.com/wolfman30/symptom-scout/internal/config"
	"github.com/wolfman30/symptom-scout/internal/session"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore selects the session store named by SESSION_STORE. The
// returned close func releases the Redis connection and is never nil.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (chat.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.SessionStore {
	case "", "memory":
		logger.Info("using in-memory session store")
		return session.NewMemoryStore(), noop, nil
	case "redis":
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return nil, noop, fmt.Errorf("bootstrap: redis session store unavailable at %q", cfg.RedisAddr)
		}
		logger.Info("using redis session store", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL.String())
		return session.NewRedisStore(client, cfg.SessionTTL, logger), client.Close, nil
	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown session store %q", cfg.SessionStore)
	}
}

package lock

import (
	"context"
	"log/slog"
	"time"

	"lessonsync/config"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/lifecycle"
	"lessonsync/internal/domain/service"
	"lessonsync/internal/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const (
	redisKeyPrefix    = "lessonsync:lock:"
	redisPollInterval = 50 * time.Millisecond
)

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// redisLocker implements KeyedLocker with SET NX PX so that several API and worker
// instances serialize on the same email.
type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLocker creates a distributed KeyedLocker.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) service.KeyedLocker {
	return &redisLocker{client: client, ttl: ttl, logger: logger}
}

// Lock polls SET NX until the key is acquired or ctx is done.
func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(redisPollInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Wrap(ctxErr, "wait for lock")
			}

			return nil, domainerrors.ErrLockUnavailable.WrapMessage(err.Error())
		}
		if acquired {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "wait for lock")
		case <-ticker.C:
		}
	}

	return func() {
		// Release must not be skipped because the caller's context was cancelled.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lifecycle.DefaultTimeout)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("Failed to release redis lock", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}

// RedisParams defines the dependencies of the Redis client.
type RedisParams struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// NewRedisClient creates the Redis client and ties it to the fx lifecycle.
func NewRedisClient(params RedisParams) (*redis.Client, error) {
	if params.Config.Redis == nil || params.Config.Redis.Addr == "" {
		return nil, errors.New("redis.addr is required when lock.provider is redis")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     params.Config.Redis.Addr,
		Password: params.Config.Redis.Password,
		DB:       params.Config.Redis.DB,
	})

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "failed to ping redis")
			}

			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client, nil
}

package lock

import (
	"log/slog"

	"lessonsync/config"
	"lessonsync/internal/domain/constants"
	"lessonsync/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// ProviderParams defines the dependencies of the locker provider.
type ProviderParams struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// NewKeyedLocker picks the lock implementation from lock.provider.
func NewKeyedLocker(params ProviderParams) (service.KeyedLocker, error) {
	provider := constants.LockProviderLocal
	if params.Config.Lock != nil && params.Config.Lock.Provider != "" {
		provider = params.Config.Lock.Provider
	}

	switch provider {
	case constants.LockProviderLocal:
		params.Logger.Info("Using in-process email lock")

		return NewLocalLocker(), nil

	case constants.LockProviderRedis:
		client, err := NewRedisClient(RedisParams{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return nil, err
		}

		params.Logger.Info("Using redis email lock",
			slog.String("addr", params.Config.Redis.Addr),
			slog.Duration("ttl", params.Config.Lock.TTL),
		)

		return NewRedisLocker(client, params.Config.Lock.TTL, params.Logger), nil

	default:
		return nil, errors.Errorf("unsupported lock provider: %s", provider)
	}
}

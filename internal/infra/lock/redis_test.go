package lock

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLockTTL = 30 * time.Second

func newTestRedisLocker(t *testing.T) (*miniredis.Miniredis, service.KeyedLocker) {
	t.Helper()

	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return m, NewRedisLocker(client, testLockTTL, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRedisLocker_AcquireSetsExpiringKey(t *testing.T) {
	m, locker := newTestRedisLocker(t)

	unlock, err := locker.Lock(context.Background(), "a@x.com")
	require.NoError(t, err)

	key := redisKeyPrefix + "a@x.com"
	require.True(t, m.Exists(key))
	assert.Equal(t, testLockTTL, m.TTL(key))

	token, err := m.Get(key)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	unlock()
	assert.False(t, m.Exists(key))
}

func TestRedisLocker_WaiterAcquiresAfterRelease(t *testing.T) {
	_, locker := newTestRedisLocker(t)
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "a@x.com")
	require.NoError(t, err)

	acquired := make(chan error, 1)
	go func() {
		unlockB, err := locker.Lock(ctx, "a@x.com")
		if err == nil {
			unlockB()
		}
		acquired <- err
	}()

	select {
	case err := <-acquired:
		t.Fatalf("second holder acquired while the first still holds the lock: %v", err)
	case <-time.After(3 * redisPollInterval):
	}

	unlockA()

	select {
	case err := <-acquired:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("second holder never acquired the lock")
	}
}

func TestRedisLocker_ContextEndsWhileWaiting(t *testing.T) {
	tests := []struct {
		name    string
		ctx     func() (context.Context, context.CancelFunc)
		wantErr error
	}{
		{
			name: "deadline",
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 4*redisPollInterval)
			},
			wantErr: context.DeadlineExceeded,
		},
		{
			name: "cancel",
			ctx: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				time.AfterFunc(4*redisPollInterval, cancel)

				return ctx, cancel
			},
			wantErr: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, locker := newTestRedisLocker(t)

			unlock, err := locker.Lock(context.Background(), "a@x.com")
			require.NoError(t, err)
			defer unlock()

			ctx, cancel := tt.ctx()
			defer cancel()

			_, err = locker.Lock(ctx, "a@x.com")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, m.Exists(redisKeyPrefix+"a@x.com"))
		})
	}
}

func TestRedisLocker_ReleaseKeepsSuccessorLock(t *testing.T) {
	m, locker := newTestRedisLocker(t)
	ctx := context.Background()
	key := redisKeyPrefix + "a@x.com"

	unlockA, err := locker.Lock(ctx, "a@x.com")
	require.NoError(t, err)

	// A outlives its lease and B takes over.
	m.FastForward(2 * testLockTTL)
	require.False(t, m.Exists(key))

	unlockB, err := locker.Lock(ctx, "a@x.com")
	require.NoError(t, err)
	tokenB, err := m.Get(key)
	require.NoError(t, err)

	unlockA()
	require.True(t, m.Exists(key))
	current, err := m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, tokenB, current)

	unlockB()
	assert.False(t, m.Exists(key))
}

func TestRedisLocker_RedisFailureIsTransient(t *testing.T) {
	m, locker := newTestRedisLocker(t)
	m.SetError("ERR server unavailable")

	unlock, err := locker.Lock(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.Nil(t, unlock)
	assert.ErrorIs(t, err, domainerrors.ErrLockUnavailable)
	assert.True(t, domainerrors.IsTransient(err))
}

func TestRedisLocker_DifferentKeysDoNotBlock(t *testing.T) {
	_, locker := newTestRedisLocker(t)
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "a@x.com")
	require.NoError(t, err)
	defer unlockA()

	ctxB, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	unlockB, err := locker.Lock(ctxB, "b@x.com")
	require.NoError(t, err)
	unlockB()
}

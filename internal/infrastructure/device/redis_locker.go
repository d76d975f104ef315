package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// refreshScript extends the lock only if it still holds our token
var refreshScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// lockStore is the subset of Redis operations the locker relies on
type lockStore interface {
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Refresh(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, token string) error
}

type redisStore struct {
	client *redis.Client
}

func (s redisStore) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, token, ttl).Result()
}

func (s redisStore) Refresh(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	n, err := refreshScript.Run(ctx, s.client, []string{key}, token, ttl.Milliseconds()).Int()
	return n == 1, err
}

func (s redisStore) Unlock(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, s.client, []string{key}, token).Err()
}

// RedisLockerConfig configures a RedisLocker
type RedisLockerConfig struct {
	KeyPrefix    string
	TTL          time.Duration
	PollInterval time.Duration
	// RenewInterval defaults to TTL/3
	RenewInterval time.Duration
}

// RedisLocker serializes device access across processes sharing a Redis.
// A held lock is renewed every RenewInterval; once renewal stops it
// expires after TTL so a crashed holder cannot wedge a device.
type RedisLocker struct {
	store  lockStore
	cfg    RedisLockerConfig
	logger *zap.Logger
}

// NewRedisLocker creates a locker on an existing client
func NewRedisLocker(client *redis.Client, cfg RedisLockerConfig, logger *zap.Logger) *RedisLocker {
	return newRedisLocker(redisStore{client: client}, cfg, logger)
}

func newRedisLocker(store lockStore, cfg RedisLockerConfig, logger *zap.Logger) *RedisLocker {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "printsvc:device:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	if cfg.RenewInterval <= 0 || cfg.RenewInterval >= cfg.TTL {
		cfg.RenewInterval = cfg.TTL / 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{store: store, cfg: cfg, logger: logger}
}

// Acquire polls SET NX until the lock is taken or ctx is done
func (l *RedisLocker) Acquire(ctx context.Context, name string) (func(), error) {
	key := l.cfg.KeyPrefix + name
	token := uuid.NewString()

	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.store.TryLock(ctx, key, token, l.cfg.TTL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("acquire %q: %w", name, ctx.Err())
			}
			return nil, fmt.Errorf("acquire %q: %w", name, err)
		}
		if ok {
			return l.hold(key, token), nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire %q: %w", name, ctx.Err())
		}
	}
}

// hold keeps the lease alive until the returned release runs
func (l *RedisLocker) hold(key, token string) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go l.renew(key, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := l.store.Unlock(ctx, key, token); err != nil {
				l.logger.Warn("Failed to release device lock", zap.String("key", key), zap.Error(err))
			}
		})
	}
}

func (l *RedisLocker) renew(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.cfg.RenewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), l.cfg.RenewInterval)
		ok, err := l.store.Refresh(ctx, key, token, l.cfg.TTL)
		cancel()
		switch {
		case err != nil:
			l.logger.Warn("Failed to renew device lock", zap.String("key", key), zap.Error(err))
		case !ok:
			l.logger.Warn("Device lock lost before release", zap.String("key", key))
			return
		}
	}
}

var _ Locker = (*RedisLocker)(nil)

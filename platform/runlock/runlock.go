// Package runlock serializes batch runs across processes with a best-effort
// Redis lock. Without Redis, or when Redis is unreachable, runs proceed and
// rely on database row locks alone.
package runlock

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"telesales_backend/platform/logger"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "telesales:run:"
	defaultTTL = 2 * time.Minute
)

// ErrBusy is returned when another process holds the lock for the same run.
var ErrBusy = errors.New("run already in progress")

// Locker guards named runs. A nil *Locker runs everything unguarded.
type Locker struct {
	client *redislock.Client
	ttl    time.Duration
	log    *logger.Logger
}

// New creates a Locker on top of an existing Redis client.
func New(rdb redislock.RedisClient, ttl time.Duration, log *logger.Logger) *Locker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Locker{client: redislock.New(rdb), ttl: ttl, log: log}
}

// NewRedisClient builds a go-redis client from a redis:// or rediss:// URL.
func NewRedisClient(redisURL string, tlsInsecure bool) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if tlsInsecure {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

// Run executes fn while holding the lock for name. It returns ErrBusy when
// the lock is held elsewhere. Any other Redis failure is logged and fn runs
// without the lock.
func (l *Locker) Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if l == nil || l.client == nil {
		return fn(ctx)
	}

	lock, err := l.client.Obtain(ctx, keyPrefix+name, l.ttl, nil)
	switch {
	case errors.Is(err, redislock.ErrNotObtained):
		return ErrBusy
	case err != nil:
		l.log.Warn("run lock unavailable, continuing without it", "run", name, "error", err)
		return fn(ctx)
	}

	defer func() {
		if rerr := lock.Release(context.WithoutCancel(ctx)); rerr != nil && !errors.Is(rerr, redislock.ErrLockNotHeld) {
			l.log.Warn("run lock release failed", "run", name, "error", rerr)
		}
	}()

	return fn(ctx)
}

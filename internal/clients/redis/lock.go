package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/learnloop/learnloop-backend/internal/logger"
)

// PlanLock serializes plan generation per user so concurrent requests do not
// each call the planner. Acquire is non-blocking; the loser waits on the
// winner's row instead of the lock.
type PlanLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Close() error
}

type planLock struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewPlanLock(log *logger.Logger) (PlanLock, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &planLock{
		log: log.With("service", "RedisPlanLock"),
		rdb: rdb,
	}, nil
}

func (l *planLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if l == nil || l.rdb == nil {
		return false, fmt.Errorf("redis plan lock not initialized")
	}
	ok, err := l.rdb.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (l *planLock) Release(ctx context.Context, key string) error {
	if l == nil || l.rdb == nil {
		return fmt.Errorf("redis plan lock not initialized")
	}
	return l.rdb.Del(ctx, key).Err()
}

func (l *planLock) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}

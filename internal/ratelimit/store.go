package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// FixedWindow adapts a ulule limiter store to the Limiter interface.
// Limiters are cached per rate so each window/max pair is built once.
type FixedWindow struct {
	Store limiter.Store

	mu       sync.Mutex
	limiters map[limiter.Rate]*limiter.Limiter
}

// NewMemoryFixedWindow returns a process-local fixed window limiter.
func NewMemoryFixedWindow(prefix string) *FixedWindow {
	return &FixedWindow{Store: memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	})}
}

// NewRedisFixedWindow returns a fixed window limiter shared through Redis.
func NewRedisFixedWindow(client *redis.Client, prefix string) (*FixedWindow, error) {
	if client == nil {
		return nil, errors.New("ratelimit: redis client is required")
	}
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return &FixedWindow{Store: store}, nil
}

// Allow consumes one token for key.
func (f *FixedWindow) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if f == nil || f.Store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	lctx, err := f.limiter(window, max).Get(ctx, key)
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}

func (f *FixedWindow) limiter(window time.Duration, max int) *limiter.Limiter {
	rate := limiter.Rate{Period: window, Limit: int64(max)}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.limiters == nil {
		f.limiters = make(map[limiter.Rate]*limiter.Limiter)
	}
	l, ok := f.limiters[rate]
	if !ok {
		l = limiter.New(f.Store, rate)
		f.limiters[rate] = l
	}
	return l
}

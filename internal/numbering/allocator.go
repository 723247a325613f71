package numbering

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/dapurasri/backoffice/pkg/pg"
	"github.com/dapurasri/backoffice/pkg/prom"
	"github.com/dapurasri/backoffice/pkg/redis"
)

// ErrAllocationExhausted means no number could be handed out. Nothing has been
// written and the caller may retry.
var ErrAllocationExhausted = errors.New("number allocation exhausted")

var errCounterRace = errors.New("counter row created concurrently")

// Allocator hands out numbers. Two calls never return the same number for the
// same scope and day, and a later call returns a greater sequence.
type Allocator interface {
	Next(ctx context.Context, scope Scope, day model.Date) (string, error)
}

// Seeder reports the highest number already stored for a prefix so a fresh
// counter continues after rows written before the counter existed.
type Seeder interface {
	LatestNumber(ctx context.Context, prefix string) (string, error)
}

// CounterStore persists one counter row per scope and day. Insert must fail
// with a duplicate key error (see pg.IsDuplicate) when the row already exists.
type CounterStore interface {
	Increment(ctx context.Context, scope, day string) (value int64, found bool, err error)
	Insert(ctx context.Context, scope, day string, value int64) error
}

func seedFor(ctx context.Context, seeders map[string]Seeder, scope Scope, prefix string) (int64, error) {
	s, ok := seeders[scope.Name]
	if !ok {
		return 0, nil
	}
	latest, err := s.LatestNumber(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("read latest %s number: %w", scope.Name, err)
	}
	if !strings.HasPrefix(latest, prefix+"-") {
		return 0, nil
	}
	return Parse(latest), nil
}

type CounterAllocator struct {
	store   CounterStore
	seeders map[string]Seeder
}

func NewCounterAllocator(store CounterStore, seeders map[string]Seeder) *CounterAllocator {
	return &CounterAllocator{store: store, seeders: seeders}
}

func (a *CounterAllocator) Next(ctx context.Context, scope Scope, day model.Date) (string, error) {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	prefix := scope.Prefix(day)
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		n, err := a.allocate(ctx, scope, day, prefix)
		if err == nil {
			prom.IncNumberAllocation(scope.Name, "ok")
			return Format(prefix, n), nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}

		prom.IncNumberAllocation(scope.Name, "retry")
		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<attempt) // 2ms, 4ms, 8ms
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
	}

	prom.IncNumberAllocation(scope.Name, "exhausted")
	logger.Error("number allocation exhausted", "scope", scope.Name, "prefix", prefix, "error", lastErr)
	return "", fmt.Errorf("%w: failed after %d attempts: %v", ErrAllocationExhausted, maxRetries+1, lastErr)
}

func (a *CounterAllocator) allocate(ctx context.Context, scope Scope, day model.Date, prefix string) (int64, error) {
	n, found, err := a.store.Increment(ctx, scope.Name, day.Compact())
	if err != nil {
		return 0, err
	}
	if found {
		return n, nil
	}

	seed, err := seedFor(ctx, a.seeders, scope, prefix)
	if err != nil {
		return 0, err
	}
	if err := a.store.Insert(ctx, scope.Name, day.Compact(), seed+1); err != nil {
		if pg.IsDuplicate(err) {
			return 0, errCounterRace
		}
		return 0, err
	}
	return seed + 1, nil
}

// RedisAllocator keeps the counters in Redis with INCR. Keys expire two days
// after their last use, long after their day is over.
type RedisAllocator struct {
	redis   redis.RedisAdapter
	seeders map[string]Seeder
	ttl     time.Duration
}

func NewRedisAllocator(r redis.RedisAdapter, seeders map[string]Seeder) *RedisAllocator {
	return &RedisAllocator{redis: r, seeders: seeders, ttl: 48 * time.Hour}
}

func counterKey(scope Scope, day model.Date) string {
	return "seq:" + scope.Code + ":" + day.Compact()
}

func (a *RedisAllocator) Next(ctx context.Context, scope Scope, day model.Date) (string, error) {
	prefix := scope.Prefix(day)
	key := counterKey(scope, day)

	exists, err := a.redis.Exist(ctx, key)
	if err != nil {
		prom.IncNumberAllocation(scope.Name, "error")
		return "", fmt.Errorf("%w: %v", ErrAllocationExhausted, err)
	}
	if exists == 0 {
		seed, err := seedFor(ctx, a.seeders, scope, prefix)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrAllocationExhausted, err)
		}
		if _, err := a.redis.SetNX(ctx, key, []byte(strconv.FormatInt(seed, 10)), a.ttl); err != nil {
			return "", fmt.Errorf("%w: %v", ErrAllocationExhausted, err)
		}
	}

	n, err := a.redis.Incr(ctx, key)
	if err != nil {
		prom.IncNumberAllocation(scope.Name, "error")
		return "", fmt.Errorf("%w: %v", ErrAllocationExhausted, err)
	}
	if err := a.redis.Expire(ctx, key, a.ttl); err != nil {
		logger.Warn("failed to refresh counter ttl", "key", key, "error", err)
	}
	prom.IncNumberAllocation(scope.Name, "ok")
	return Format(prefix, n), nil
}

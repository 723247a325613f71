package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/dapurasri/backoffice/pkg/redis"
	"github.com/google/uuid"
)

var (
	ErrAlreadyProcessed  = errors.New("event already processed")
	ErrLockAcquireFailed = errors.New("failed to acquire processing lock")
)

type IdempotencyConfig struct {
	LockTTL            time.Duration
	ProcessedTTL       time.Duration
	LockKeyPrefix      string
	ProcessedKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:            30 * time.Second,
		ProcessedTTL:       24 * time.Hour,
		LockKeyPrefix:      "event-lock:",
		ProcessedKeyPrefix: "event-done:",
	}
}

// IdempotencyService stops an event that was claimed again after a lost ack
// from being handled twice, and two consumers from handling it at once.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(r redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{redis: r, config: config}
}

type ProcessingContext struct {
	EventID      string
	lockAcquired bool
	token        []byte
}

func (s *IdempotencyService) Acquire(ctx context.Context, eventID string) (*ProcessingContext, error) {
	exists, err := s.redis.Exist(ctx, s.config.ProcessedKeyPrefix+eventID)
	if err != nil {
		// a failed check risks one extra rebuild, which is harmless
		logger.Warn("failed to check processed marker", "event", eventID, "error", err)
	} else if exists > 0 {
		return nil, ErrAlreadyProcessed
	}

	token := []byte(uuid.NewString())
	acquired, err := s.redis.SetNX(ctx, s.config.LockKeyPrefix+eventID, token, s.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		return nil, ErrLockAcquireFailed
	}

	return &ProcessingContext{EventID: eventID, lockAcquired: true, token: token}, nil
}

// MarkSuccess stores the processed marker and drops the lock.
func (s *IdempotencyService) MarkSuccess(ctx context.Context, pc *ProcessingContext) error {
	if err := s.redis.Set(ctx, s.config.ProcessedKeyPrefix+pc.EventID, []byte("1"), s.config.ProcessedTTL); err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	return s.Release(ctx, pc)
}

func (s *IdempotencyService) Release(ctx context.Context, pc *ProcessingContext) error {
	if pc == nil || !pc.lockAcquired {
		return nil
	}
	released, err := s.redis.DelIfValue(ctx, s.config.LockKeyPrefix+pc.EventID, pc.token)
	if err != nil {
		logger.Warn("failed to release lock", "event", pc.EventID, "error", err)
		return err
	}
	if !released {
		logger.Warn("processing lock expired before release", "event", pc.EventID)
	}
	pc.lockAcquired = false
	return nil
}

func (s *IdempotencyService) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	exists, err := s.redis.Exist(ctx, s.config.ProcessedKeyPrefix+eventID)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

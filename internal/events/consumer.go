package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/dapurasri/backoffice/pkg/prom"
	"github.com/dapurasri/backoffice/pkg/redis"
)

// Handler processes one event. A nil return acks it; an error leaves it
// pending so it is claimed again once ClaimIdle has passed.
type Handler func(ctx context.Context, e Event) error

type ConsumerConfig struct {
	Stream       string
	Group        string
	Name         string
	BatchSize    int64
	Block        time.Duration
	ClaimIdle    time.Duration
	MaxDeliver   int64
	HandlerLimit time.Duration
	// DeadLetter receives events that failed MaxDeliver times. Empty
	// disables it and such events are just acked.
	DeadLetter string
}

type Stats struct {
	Length  int64
	Pending int64
}

type Consumer struct {
	redis  redis.RedisAdapter
	config ConsumerConfig
	log    *logger.ZapLogger

	mu      sync.Mutex
	running bool
}

func NewConsumer(r redis.RedisAdapter, cfg ConsumerConfig) (*Consumer, error) {
	if cfg.Stream == "" {
		return nil, errors.New("stream name is required")
	}
	if cfg.Group == "" {
		cfg.Group = "dashboard"
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Block <= 0 {
		cfg.Block = 2 * time.Second
	}
	if cfg.ClaimIdle <= 0 {
		cfg.ClaimIdle = time.Minute
	}
	if cfg.MaxDeliver <= 0 {
		cfg.MaxDeliver = 5
	}
	if cfg.HandlerLimit <= 0 {
		cfg.HandlerLimit = 30 * time.Second
	}
	return &Consumer{
		redis:  r,
		config: cfg,
		log:    logger.With("stream", cfg.Stream, "group", cfg.Group, "consumer", cfg.Name),
	}, nil
}

// Init creates the consumer group, and the stream with it. An existing group
// is fine.
func (c *Consumer) Init(ctx context.Context) error {
	err := c.redis.XGroupCreateMkStream(ctx, c.config.Stream, c.config.Group, "0")
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", c.config.Group, err)
	}
	return nil
}

// Run polls until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.New("event handler is required")
	}
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	if err := c.Init(ctx); err != nil {
		return err
	}

	c.log.Info("event consumer started")
	for {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := c.Poll(ctx, handler); err != nil && ctx.Err() == nil {
			c.log.Error("event poll failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}

// Poll claims stuck events, then reads new ones, handing each to handler.
// It returns how many events were handled.
func (c *Consumer) Poll(ctx context.Context, handler Handler) (int, error) {
	reclaimed, err := c.claimStuck(ctx, handler)
	if err != nil {
		return reclaimed, err
	}

	messages, err := c.redis.XReadGroup(ctx, c.config.Group, c.config.Name, c.config.Stream, ">", c.config.BatchSize, c.config.Block)
	if err != nil {
		if redis.IsNil(err) {
			return reclaimed, nil
		}
		return reclaimed, err
	}

	for _, m := range messages {
		c.handle(ctx, m, 1, handler)
	}
	return reclaimed + len(messages), nil
}

func (c *Consumer) claimStuck(ctx context.Context, handler Handler) (int, error) {
	pending, err := c.redis.XPendingExt(ctx, c.config.Stream, c.config.Group, 100)
	if err != nil || len(pending) == 0 {
		if redis.IsNil(err) {
			return 0, nil
		}
		return 0, err
	}

	deliveries := make(map[string]int64)
	var ids []string
	for _, p := range pending {
		if p.Idle >= c.config.ClaimIdle {
			ids = append(ids, p.ID)
			deliveries[p.ID] = p.RetryCount
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	messages, err := c.redis.XClaim(ctx, c.config.Stream, c.config.Group, c.config.Name, c.config.ClaimIdle, ids...)
	if err != nil {
		return 0, err
	}
	for _, m := range messages {
		c.handle(ctx, m, deliveries[m.ID]+1, handler)
	}
	return len(messages), nil
}

func (c *Consumer) handle(ctx context.Context, m redis.StreamMessage, deliveries int64, handler Handler) {
	e, err := fromStream(m)
	if err != nil {
		c.log.Warn("dropping malformed event", "id", m.ID, "error", err)
		prom.IncEventProcessed("unknown", "invalid")
		c.ack(ctx, m.ID)
		return
	}
	e.Deliveries = deliveries

	if deliveries > c.config.MaxDeliver {
		c.deadLetter(ctx, m, e)
		prom.IncEventProcessed(e.Kind, "dead")
		c.ack(ctx, m.ID)
		return
	}

	hctx, cancel := context.WithTimeout(ctx, c.config.HandlerLimit)
	defer cancel()

	if err := handler(hctx, e); err != nil {
		c.log.Warn("event handler failed, will retry", "id", m.ID, "kind", e.Kind, "deliveries", deliveries, "error", err)
		prom.IncEventProcessed(e.Kind, "retry")
		return
	}
	prom.IncEventProcessed(e.Kind, "ok")
	c.ack(ctx, m.ID)
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.redis.XAck(ctx, c.config.Stream, c.config.Group, id); err != nil {
		c.log.Error("failed to ack event", "id", id, "error", err)
	}
}

func (c *Consumer) deadLetter(ctx context.Context, m redis.StreamMessage, e Event) {
	c.log.Error("event exceeded deliveries", "id", m.ID, "kind", e.Kind, "deliveries", e.Deliveries)
	if c.config.DeadLetter == "" {
		return
	}
	values := e.values()
	values["original_id"] = m.ID
	values["deliveries"] = e.Deliveries
	values["failed_at"] = time.Now().Unix()
	if _, err := c.redis.XAdd(ctx, c.config.DeadLetter, 0, values); err != nil {
		c.log.Error("failed to dead-letter event", "id", m.ID, "error", err)
	}
}

func (c *Consumer) Stats(ctx context.Context) (Stats, error) {
	length, err := c.redis.XLen(ctx, c.config.Stream)
	if err != nil {
		return Stats{}, err
	}
	pending, err := c.redis.XPendingExt(ctx, c.config.Stream, c.config.Group, 1000)
	if err != nil && !redis.IsNil(err) {
		return Stats{}, err
	}
	return Stats{Length: length, Pending: int64(len(pending))}, nil
}

package events

import (
	"context"
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/dapurasri/backoffice/pkg/redis"
	"github.com/google/uuid"
)

// Invalidator drops the cached dashboard of a year.
type Invalidator interface {
	Invalidate(ctx context.Context, year int) error
}

type PublisherConfig struct {
	Stream string
	MaxLen int64
	// Location decides the year of undated events.
	Location *time.Location
}

// Publisher appends change events to the stream and drops the cached
// dashboard of the touched year right away, so readers never wait for the
// processor to see their own writes.
type Publisher struct {
	redis       redis.RedisAdapter
	config      PublisherConfig
	invalidator Invalidator
	now         func() time.Time
}

func NewPublisher(r redis.RedisAdapter, cfg PublisherConfig, invalidator Invalidator) *Publisher {
	if cfg.Stream == "" {
		cfg.Stream = "documents"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Publisher{redis: r, config: cfg, invalidator: invalidator, now: time.Now}
}

// Publish appends e and returns the stream id.
func (p *Publisher) Publish(ctx context.Context, e Event) (string, error) {
	if e.At.IsZero() {
		e.At = p.now().In(p.config.Location)
	}
	return p.redis.XAdd(ctx, p.config.Stream, p.config.MaxLen, e.values())
}

// DocumentChanged never fails. The write it reports has already been
// committed; a lost event only delays the dashboard until the nightly run.
func (p *Publisher) DocumentChanged(ctx context.Context, kind string, id uuid.UUID, date model.Date) {
	e := Event{Kind: kind, ID: id, Date: date, At: p.now().In(p.config.Location)}

	if p.invalidator != nil {
		if err := p.invalidator.Invalidate(ctx, e.Year()); err != nil {
			logger.Warn("failed to invalidate dashboard", "year", e.Year(), "kind", kind, "error", err)
		}
	}

	if _, err := p.Publish(ctx, e); err != nil {
		logger.Warn("failed to publish document event", "kind", kind, "id", id, "error", err)
	}
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dapurasri/backoffice/internal/aggregate"
	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/dapurasri/backoffice/pkg/prom"
	"github.com/dapurasri/backoffice/pkg/redis"
	"github.com/google/uuid"
)

type SalesReader interface {
	FindAll(ctx context.Context, f model.SalesFilter) ([]model.SalesTransaction, error)
	DetailsFor(ctx context.Context, txIDs []uuid.UUID) ([]model.SalesDetail, error)
	TransactionIDsWithProduct(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error)
}

type PurchaseReader interface {
	FindAll(ctx context.Context, f model.PurchaseFilter) ([]model.PurchaseTransaction, error)
}

func DashboardKey(year int) string {
	return "dashboard:" + strconv.Itoa(year)
}

// DashboardService serves the monthly summaries. The fold result of a year is
// cached unsorted; the current month is moved to the front on every read.
type DashboardService struct {
	sales     SalesReader
	purchases PurchaseReader
	cache     redis.RedisAdapter
	ttl       time.Duration
	clock     Clock
}

func NewDashboardService(sales SalesReader, purchases PurchaseReader, cache redis.RedisAdapter, ttl time.Duration, clock Clock) *DashboardService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DashboardService{sales: sales, purchases: purchases, cache: cache, ttl: ttl, clock: clock.normalized()}
}

// Summaries returns the months of year that had activity. Year zero means the
// current year.
func (s *DashboardService) Summaries(ctx context.Context, year int) ([]model.MonthlySummary, error) {
	today := s.clock.Today()
	if year == 0 {
		year = today.Year()
	}

	if cached, ok := s.cached(ctx, year); ok {
		return aggregate.CurrentMonthFirst(cached, today), nil
	}

	summaries, err := s.Refresh(ctx, year)
	if err != nil {
		return nil, err
	}
	return aggregate.CurrentMonthFirst(summaries, today), nil
}

func (s *DashboardService) cached(ctx context.Context, year int) ([]model.MonthlySummary, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, DashboardKey(year))
	if err != nil {
		if !redis.IsNil(err) {
			logger.Warn("dashboard cache read failed", "year", year, "error", err)
		}
		return nil, false
	}
	var out []model.MonthlySummary
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Warn("dashboard cache entry is corrupt", "year", year, "error", err)
		return nil, false
	}
	return out, true
}

// Refresh rebuilds the summaries of year from storage and stores them in the
// cache.
func (s *DashboardService) Refresh(ctx context.Context, year int) ([]model.MonthlySummary, error) {
	started := time.Now()
	summaries, err := s.build(ctx, year)
	if err != nil {
		return nil, err
	}
	prom.ObserveDashboardBuild(time.Since(started).Seconds())

	if s.cache != nil {
		raw, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("encode dashboard: %w", err)
		}
		if err := s.cache.Set(ctx, DashboardKey(year), raw, s.ttl); err != nil {
			logger.Warn("dashboard cache write failed", "year", year, "error", err)
		}
	}
	return summaries, nil
}

// Invalidate drops the cached summaries of year.
func (s *DashboardService) Invalidate(ctx context.Context, year int) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, DashboardKey(year))
}

func (s *DashboardService) build(ctx context.Context, year int) ([]model.MonthlySummary, error) {
	from := model.NewDate(year, time.January, 1)
	to := model.NewDate(year, time.December, 31)

	headers, err := s.sales.FindAll(ctx, model.SalesFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(headers))
	for _, h := range headers {
		ids = append(ids, h.ID)
	}
	details, err := s.sales.DetailsFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load sales details: %w", err)
	}
	purchases, err := s.purchases.FindAll(ctx, model.PurchaseFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("load purchases: %w", err)
	}

	return aggregate.MonthlySummaries(year, headers, details, purchases), nil
}

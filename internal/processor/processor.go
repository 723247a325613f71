package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dapurasri/backoffice/internal/events"
	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/dapurasri/backoffice/pkg/worker"
	"github.com/go-co-op/gocron"
)

const ProcessingTimeout = time.Second * 30
const ReportInterval = time.Minute

// Refresher rebuilds and caches the dashboard of a year.
type Refresher interface {
	Refresh(ctx context.Context, year int) ([]model.MonthlySummary, error)
}

type EventSource interface {
	Run(ctx context.Context, handler events.Handler) error
	Stats(ctx context.Context) (events.Stats, error)
}

type Config struct {
	Workers int
	// RefreshAt is the HH:MM of the nightly rebuild of the current year.
	RefreshAt string
	Location  *time.Location
}

// ProcessorService keeps the cached dashboards fresh. Change events are
// handed to a worker pool; a nightly job rebuilds the current year in case
// an event was lost.
type ProcessorService struct {
	source      EventSource
	refresher   Refresher
	idempotency *IdempotencyService
	config      Config
	metrics     *ServiceMetrics
	worker      *worker.WorkerManager
	scheduler   *gocron.Scheduler
	now         func() time.Time
	wg          sync.WaitGroup
	cancel      context.CancelFunc
}

func NewProcessorService(source EventSource, refresher Refresher, idempotency *IdempotencyService, cfg Config) (*ProcessorService, error) {
	if refresher == nil {
		return nil, errors.New("refresher is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.RefreshAt == "" {
		cfg.RefreshAt = "01:00"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	s := &ProcessorService{
		source:      source,
		refresher:   refresher,
		idempotency: idempotency,
		config:      cfg,
		metrics:     NewServiceMetrics(),
		worker:      worker.NewWorkerManager(cfg.Workers*16, cfg.Workers),
		scheduler:   gocron.NewScheduler(cfg.Location),
		now:         time.Now,
	}
	s.worker.SetWorker(s.workerHandler)

	if _, err := s.scheduler.Every(1).Day().At(cfg.RefreshAt).Do(s.nightly); err != nil {
		return nil, fmt.Errorf("schedule nightly refresh at %q: %w", cfg.RefreshAt, err)
	}
	return s, nil
}

func (s *ProcessorService) Start(ctx context.Context) error {
	logger.Info("starting processor service", "workers", s.config.Workers, "refresh_at", s.config.RefreshAt)
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(ctx); err != nil && !errors.Is(err, worker.ErrStopped) {
			logger.Error("worker manager stopped", "error", err)
		}
	}()

	if s.source != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.source.Run(ctx, s.HandleEvent); err != nil {
				logger.Error("event consumer stopped", "error", err)
			}
		}()
	}

	s.wg.Add(1)
	go s.metricsReporter(ctx)

	s.scheduler.StartAsync()
	return nil
}

func (s *ProcessorService) Stop() {
	logger.Info("shutting down processor service")
	s.scheduler.Stop()
	if s.cancel != nil {
		s.cancel()
	}
	s.worker.Exit()
	s.wg.Wait()
	s.reportMetrics(context.Background())
	logger.Info("processor service stopped")
}

// RefreshCurrentYear rebuilds the dashboard of the year containing today.
func (s *ProcessorService) RefreshCurrentYear(ctx context.Context) error {
	year := s.now().In(s.config.Location).Year()
	start := time.Now()
	if _, err := s.refresher.Refresh(ctx, year); err != nil {
		s.metrics.RecordFailure()
		return fmt.Errorf("refresh dashboard %d: %w", year, err)
	}
	s.metrics.RecordRefresh(time.Since(start))
	return nil
}

func (s *ProcessorService) nightly() {
	ctx, cancel := context.WithTimeout(context.Background(), ProcessingTimeout)
	defer cancel()
	if err := s.RefreshCurrentYear(ctx); err != nil {
		logger.Error("nightly dashboard refresh failed", "error", err)
		return
	}
	logger.Info("nightly dashboard refresh done")
}

type job struct {
	event  events.Event
	result chan error
	ctx    context.Context
}

// HandleEvent hands e to the worker pool and waits for the outcome, so the
// consumer acks only what was actually rebuilt.
func (s *ProcessorService) HandleEvent(ctx context.Context, e events.Event) error {
	ctx, cancel := context.WithTimeout(ctx, ProcessingTimeout)
	defer cancel()

	j := &job{event: e, result: make(chan error, 1), ctx: ctx}
	if err := s.worker.Enqueue(ctx, j); err != nil {
		return err
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for worker: %w", ctx.Err())
	}
}

func (s *ProcessorService) workerHandler(_ context.Context, workerIndex int, v interface{}) {
	j, ok := v.(*job)
	if !ok {
		logger.Error("invalid job type in worker", "worker", workerIndex)
		return
	}
	select {
	case j.result <- s.process(j.ctx, j.event):
	case <-j.ctx.Done():
		logger.Warn("event handler gave up before the result was sent", "worker", workerIndex, "event", j.event.StreamID)
	}
}

func (s *ProcessorService) process(ctx context.Context, e events.Event) error {
	var pc *ProcessingContext
	if s.idempotency != nil && e.StreamID != "" {
		var err error
		pc, err = s.idempotency.Acquire(ctx, e.StreamID)
		if errors.Is(err, ErrAlreadyProcessed) {
			s.metrics.RecordSkip()
			return nil
		}
		if err != nil {
			return err
		}
	}

	start := time.Now()
	if _, err := s.refresher.Refresh(ctx, e.Year()); err != nil {
		s.metrics.RecordFailure()
		if pc != nil {
			_ = s.idempotency.Release(ctx, pc)
		}
		return fmt.Errorf("refresh dashboard %d: %w", e.Year(), err)
	}
	s.metrics.RecordRefresh(time.Since(start))

	if pc != nil {
		if err := s.idempotency.MarkSuccess(ctx, pc); err != nil {
			logger.Warn("failed to mark event processed", "event", e.StreamID, "error", err)
		}
	}
	logger.Debug("dashboard refreshed", "year", e.Year(), "kind", e.Kind, "event", e.StreamID)
	return nil
}

func (s *ProcessorService) metricsReporter(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(ReportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.reportMetrics(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *ProcessorService) reportMetrics(ctx context.Context) {
	st := s.metrics.Stats()
	logger.Info("processor metrics",
		"refreshed", st.Refreshed,
		"skipped", st.Skipped,
		"failed", st.Failed,
		"avg_duration_ms", st.AvgDurationMs,
		"uptime_seconds", int64(st.Uptime.Seconds()))

	if s.source == nil {
		return
	}
	if qs, err := s.source.Stats(ctx); err == nil {
		logger.Info("event stream stats", "length", qs.Length, "pending", qs.Pending)
	}
}

func (s *ProcessorService) Stats() Stats {
	return s.metrics.Stats()
}

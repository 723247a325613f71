package processor

import (
	"sync/atomic"
	"time"
)

// ServiceMetrics are the in-process counters logged by the reporter loop.
// Prometheus carries the same numbers per kind.
type ServiceMetrics struct {
	refreshed       int64
	skipped         int64
	failed          int64
	totalDurationNs int64
	startedNs       int64
}

func NewServiceMetrics() *ServiceMetrics {
	return &ServiceMetrics{startedNs: time.Now().UnixNano()}
}

func (m *ServiceMetrics) RecordRefresh(d time.Duration) {
	atomic.AddInt64(&m.refreshed, 1)
	atomic.AddInt64(&m.totalDurationNs, int64(d))
}

func (m *ServiceMetrics) RecordSkip() {
	atomic.AddInt64(&m.skipped, 1)
}

func (m *ServiceMetrics) RecordFailure() {
	atomic.AddInt64(&m.failed, 1)
}

type Stats struct {
	Refreshed     int64
	Skipped       int64
	Failed        int64
	AvgDurationMs int64
	Uptime        time.Duration
}

func (m *ServiceMetrics) Stats() Stats {
	refreshed := atomic.LoadInt64(&m.refreshed)
	s := Stats{
		Refreshed: refreshed,
		Skipped:   atomic.LoadInt64(&m.skipped),
		Failed:    atomic.LoadInt64(&m.failed),
		Uptime:    time.Since(time.Unix(0, atomic.LoadInt64(&m.startedNs))),
	}
	if refreshed > 0 {
		s.AvgDurationMs = time.Duration(atomic.LoadInt64(&m.totalDurationNs) / refreshed).Milliseconds()
	}
	return s
}

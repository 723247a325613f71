package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService pings the backends the API cannot serve without.
type HealthService struct {
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealthService(checks map[string]Pinger) *HealthService {
	return &HealthService{checks: checks, timeout: 2 * time.Second}
}

func (s *HealthService) Get() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var errs []error
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

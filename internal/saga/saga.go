// Package saga runs a sequence of writes that must all land or all be undone.
// Steps run in order; when one fails, the completed steps are undone newest
// first and every undo is attempted even if an earlier one failed.
package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/dapurasri/backoffice/pkg/prom"
)

// ErrCompensationFailed is wrapped into the result when at least one undo
// failed, meaning the stored data may be inconsistent.
var ErrCompensationFailed = errors.New("compensation failed")

type Step struct {
	Name string
	Do   func(ctx context.Context) error
	// Undo may be nil for steps with nothing to revert.
	Undo func(ctx context.Context) error
}

type Saga struct {
	name  string
	steps []Step
}

func New(name string, steps ...Step) *Saga {
	return &Saga{name: name, steps: steps}
}

func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Run executes the steps. The returned error wraps the failing step's error,
// and ErrCompensationFailed with each undo error when rollback was partial.
func (s *Saga) Run(ctx context.Context) error {
	done := make([]Step, 0, len(s.steps))
	for _, step := range s.steps {
		if err := step.Do(ctx); err != nil {
			stepErr := fmt.Errorf("%s: %s: %w", s.name, step.Name, err)
			if undoErr := s.compensate(ctx, done); undoErr != nil {
				return errors.Join(stepErr, undoErr)
			}
			return stepErr
		}
		done = append(done, step)
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, done []Step) error {
	if len(done) == 0 {
		return nil
	}
	// Undo must run even when the request context has been cancelled.
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Undo == nil {
			continue
		}
		if err := step.Undo(ctx); err != nil {
			logger.Error("compensation step failed", "saga", s.name, "step", step.Name, "error", err)
			errs = append(errs, fmt.Errorf("undo %s: %w", step.Name, err))
		}
	}
	if len(errs) > 0 {
		prom.IncCompensation(s.name, "failed")
		return fmt.Errorf("%w: %w", ErrCompensationFailed, errors.Join(errs...))
	}
	prom.IncCompensation(s.name, "ok")
	logger.Warn("saga rolled back", "saga", s.name, "steps", len(done))
	return nil
}

// Package services coordinates the document flows: sales drafts and their
// commit, orders, purchases, master data, reports and the dashboard.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/internal/numbering"
	"github.com/dapurasri/backoffice/internal/repository"
	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned for a draft transition its state does not allow.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrRetryable wraps failures that left nothing written; the caller may
	// try the same request again.
	ErrRetryable = errors.New("temporarily unavailable")
	// ErrInUse is returned when master data is still referenced by documents.
	ErrInUse = errors.New("still referenced by documents")
)

// CommittedError reports a commit whose transaction is stored but whose draft
// could not be marked committed. The draft is gone, so committing it again
// returns ErrNotFound instead of a second transaction.
type CommittedError struct {
	TransactionID uuid.UUID
	TransactionNo string
	Err           error
}

func (e *CommittedError) Error() string {
	return fmt.Sprintf("transaction %s committed but draft not updated: %v", e.TransactionNo, e.Err)
}

func (e *CommittedError) Unwrap() error { return e.Err }

// ValidationError carries a user facing message.
type ValidationError = model.ValidationError

// Document kinds reported to the event publisher.
const (
	KindSales    = "sales"
	KindOrder    = "order"
	KindPurchase = "purchase"
	KindProduct  = "product"
)

// EventPublisher is told about every successful write so cached views can be
// refreshed. Publishing failures never fail the write.
type EventPublisher interface {
	DocumentChanged(ctx context.Context, kind string, id uuid.UUID, date model.Date)
}

type nopPublisher struct{}

func (nopPublisher) DocumentChanged(context.Context, string, uuid.UUID, model.Date) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// Clock answers "today" in the shop's time zone.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func DefaultClock(loc *time.Location) Clock {
	return Clock{Now: time.Now, Location: loc}
}

func (c Clock) normalized() Clock {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	return c
}

func (c Clock) Today() model.Date {
	c = c.normalized()
	return model.Today(c.Now(), c.Location)
}

func mapErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, repository.ErrInUse) {
		return ErrInUse
	}
	if errors.Is(err, numbering.ErrAllocationExhausted) && !errors.Is(err, ErrRetryable) {
		return errors.Join(ErrRetryable, err)
	}
	return err
}

var errNumberTaken = errors.New("document number already used")

const maxNumberAttempts = 3

// createNumbered allocates a document number and hands it to create. When
// create reports errNumberTaken the number is thrown away and a new one is
// allocated.
func createNumbered(ctx context.Context, numbers numbering.Allocator, scope numbering.Scope, day model.Date, create func(number string) error) error {
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		number, err := numbers.Next(ctx, scope, day)
		if err != nil {
			return fmt.Errorf("%w: allocate %s number: %w", ErrRetryable, scope.Name, err)
		}
		err = create(number)
		if errors.Is(err, errNumberTaken) {
			logger.Warn("document number taken, allocating again", "scope", scope.Name, "number", number, "attempt", attempt)
			continue
		}
		return err
	}
	return fmt.Errorf("%w: %w after %d attempts", ErrRetryable, errNumberTaken, maxNumberAttempts)
}

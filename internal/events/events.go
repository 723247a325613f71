// Package events carries document change notifications over a Redis stream.
// Writers publish one Event per committed document; the processor consumes
// them in a consumer group and rebuilds the cached dashboard.
package events

import (
	"fmt"
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/pkg/redis"
	"github.com/google/uuid"
)

type Event struct {
	// StreamID is set on consumed events only.
	StreamID string
	Kind     string
	ID       uuid.UUID
	Date     model.Date
	At       time.Time
	// Deliveries counts how many times the group handed the event out.
	Deliveries int64
}

// Year is the dashboard year the event touches. Events without a document
// date, such as product renames, touch the year of At.
func (e Event) Year() int {
	if !e.Date.IsZero() {
		return e.Date.Year()
	}
	return e.At.Year()
}

func (e Event) values() map[string]interface{} {
	return map[string]interface{}{
		"kind": e.Kind,
		"id":   e.ID.String(),
		"date": e.Date.String(),
		"at":   e.At.Format(time.RFC3339),
	}
}

func fromStream(m redis.StreamMessage) (Event, error) {
	e := Event{StreamID: m.ID}
	str := func(k string) string {
		s, _ := m.Values[k].(string)
		return s
	}

	e.Kind = str("kind")
	if e.Kind == "" {
		return e, fmt.Errorf("event %s has no kind", m.ID)
	}

	id, err := uuid.Parse(str("id"))
	if err != nil {
		return e, fmt.Errorf("event %s: %w", m.ID, err)
	}
	e.ID = id

	if raw := str("date"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			return e, fmt.Errorf("event %s: %w", m.ID, err)
		}
		e.Date = d
	}

	at, err := time.Parse(time.RFC3339, str("at"))
	if err != nil {
		at = time.Now()
	}
	e.At = at
	return e, nil
}

// Package events carries domain notifications out of the command path.
// Delivery is best effort: publishers report errors, callers log them.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"crewops/internal/model"
)

// TypeDocumentStatusChanged is emitted after a document is approved or rejected.
const TypeDocumentStatusChanged = "document.status_changed"

// Event is a document review notification.
type Event struct {
	Type         string               `json:"type"`
	DocumentID   string               `json:"document_id"`
	OwnerID      string               `json:"owner_id"`
	DocumentType model.DocumentType   `json:"document_type"`
	Status       model.DocumentStatus `json:"status"`
	OccurredAt   time.Time            `json:"occurred_at"`
}

// DocumentStatusChanged builds the event for a reviewed document.
func DocumentStatusChanged(d *model.Document, at time.Time) Event {
	return Event{
		Type:         TypeDocumentStatusChanged,
		DocumentID:   d.ID,
		OwnerID:      d.OwnerID,
		DocumentType: d.Type,
		Status:       d.Status,
		OccurredAt:   at,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Handler consumes one event.
type Handler func(ctx context.Context, e Event) error

// Bus delivers events synchronously to in-process subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

var _ Publisher = (*Bus)(nil)

func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Subscribe registers h for events of type eventType.
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// Publish runs every handler for e.Type, even when one fails, and joins their errors.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[e.Type]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range hs {
		if err := h(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RedisPublisher forwards events as JSON on a Redis channel named after the event type.
type RedisPublisher struct {
	rdb    redis.Cmdable
	prefix string
}

var _ Publisher = (*RedisPublisher)(nil)

func NewRedisPublisher(rdb redis.Cmdable) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, prefix: "crewops."}
}

// Channel returns the Redis channel an event type is published on.
func (p *RedisPublisher) Channel(eventType string) string {
	return p.prefix + eventType
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, p.Channel(e.Type), b).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Fanout publishes to every publisher in order.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

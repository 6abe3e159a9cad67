package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/eddy80524/dental-quiz-app/internal/redact"
)

// InMemoryEventEmitter hands ranking.published and ranking.weekly_reset
// events from the ranking builder to subscribers in the same process,
// typically the websocket hub. Delivery is synchronous, so a publish returns
// only after every subscriber has seen the new snapshot version.
type InMemoryEventEmitter struct {
	handlers []Handler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEventEmitter returns an emitter with no subscribers.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		logger: logger.With(slog.String("component", "ranking_events")),
	}
}

// RegisterHandler subscribes handler to every later ranking event. Events
// emitted before registration are not replayed.
func (e *InMemoryEventEmitter) RegisterHandler(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("ranking event subscriber added", slog.Int("subscribers", len(e.handlers)))
}

// EmitEvent delivers event to each subscriber in registration order. A
// failing subscriber does not stop delivery to the rest; the first failure
// is returned so the builder can log it. Snapshots are already committed
// when this runs, so a failure never undoes a publish.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	subscribers := append([]Handler(nil), e.handlers...)
	e.mu.RUnlock()

	log := e.logger.With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type))
	log.Debug("delivering ranking event", slog.Int("subscribers", len(subscribers)))

	var firstErr error
	for i, h := range subscribers {
		if err := h.HandleEvent(ctx, event); err != nil {
			log.Error("ranking event subscriber failed",
				slog.Int("subscriber", i),
				slog.String("error", redact.Error(err)))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Observer is the capability invoked on every entity mutation. Observers
// are registered once at process startup; there is no runtime discovery.
type Observer interface {
	// Name identifies the observer in logs.
	Name() string

	// Notify delivers one event. Implementations must be safe for
	// concurrent use; the registry invokes observers in parallel.
	Notify(ctx context.Context, event Event) error
}

// Registry holds the ordered set of registered observers and fans events
// out to all of them. Delivery is best-effort: one observer failing never
// prevents the others from being invoked, and dispatch errors never
// convert a successful mutation into a failure.
type Registry struct {
	mu        sync.RWMutex
	observers []Observer
	logger    *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger.With("component", "notification_registry"),
	}
}

// Register appends an observer. Call during startup wiring, before any
// dispatch happens.
func (r *Registry) Register(observer Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, observer)
	r.logger.Debug("registered observer",
		"observer", observer.Name(),
		"observer_count", len(r.observers))
}

// Dispatch fans the event out to all registered observers concurrently
// and waits for them to finish. Per-observer failures are isolated and
// logged; the joined error is returned so callers can observe the
// aggregate outcome, but mutation paths log it and move on.
func (r *Registry) Dispatch(ctx context.Context, event Event) error {
	r.mu.RLock()
	observers := make([]Observer, len(r.observers))
	copy(observers, r.observers)
	r.mu.RUnlock()

	if len(observers) == 0 {
		r.logger.Warn("no observers registered for event",
			"event_id", event.ID,
			"action", event.Action,
			"entity", event.Entity)
		return nil
	}

	r.logger.Debug("dispatching event",
		"event_id", event.ID,
		"action", event.Action,
		"entity", event.Entity,
		"observer_count", len(observers))

	errs := make([]error, len(observers))
	var wg sync.WaitGroup
	for i, observer := range observers {
		wg.Add(1)
		go func(i int, observer Observer) {
			defer wg.Done()
			if err := observer.Notify(ctx, event); err != nil {
				r.logger.Error("observer failed to process event",
					"observer", observer.Name(),
					"event_id", event.ID,
					"action", event.Action,
					"error", err)
				errs[i] = fmt.Errorf("observer %s: %w", observer.Name(), err)
			}
		}(i, observer)
	}
	wg.Wait()

	return errors.Join(errs...)
}

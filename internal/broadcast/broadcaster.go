package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/infra"
)

// Listener is one UI surface, or anything standing in for one.
type Listener interface {
	Name() string
	Deliver(ctx context.Context, ev Event) error
}

// DefaultDeliveryTimeout bounds a single listener's delivery.
const DefaultDeliveryTimeout = 10 * time.Second

// Broadcaster fans events out to every registered listener. A listener that
// fails, stalls or panics does not stop delivery to the others.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners []Listener
	logger    infra.Logger
	timeout   time.Duration
	pending   sync.WaitGroup
}

// New builds a broadcaster over listeners.
func New(logger *infra.Logger, listeners ...Listener) *Broadcaster {
	return &Broadcaster{
		listeners: listeners,
		logger:    infra.LoggerOrDiscard(logger),
		timeout:   DefaultDeliveryTimeout,
	}
}

// WithDeliveryTimeout changes the per-listener timeout. Non-positive values
// keep the current one.
func (b *Broadcaster) WithDeliveryTimeout(d time.Duration) *Broadcaster {
	if d > 0 {
		b.timeout = d
	}
	return b
}

// Register adds a listener.
func (b *Broadcaster) Register(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Listeners returns the registered listener names.
func (b *Broadcaster) Listeners() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.listeners))
	for _, l := range b.listeners {
		names = append(names, l.Name())
	}
	return names
}

// Publish delivers ev to every listener concurrently, waits for all of them
// and returns the combined failures in registration order.
func (b *Broadcaster) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	listeners := append([]Listener(nil), b.listeners...)
	b.mu.RUnlock()

	errs := make([]error, len(listeners))
	var wg sync.WaitGroup
	for i, l := range listeners {
		i, l := i, l
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = b.deliver(ctx, l, ev)
		}()
	}
	wg.Wait()

	var result *multierror.Error
	for i, err := range errs {
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", listeners[i].Name(), err))
		}
	}
	return result.ErrorOrNil()
}

func (b *Broadcaster) deliver(ctx context.Context, l Listener, ev Event) (err error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return l.Deliver(ctx, ev)
}

// NotifyAll sends action with payload to every listener in the background and
// returns at once. The caller's cancellation does not reach the listeners.
// Delivery failures are logged and dropped.
func (b *Broadcaster) NotifyAll(ctx context.Context, action string, payload json.RawMessage) {
	ev := NewEvent(action, payload)
	ctx = context.WithoutCancel(ctx)

	b.pending.Add(1)
	go func() {
		defer b.pending.Done()
		if err := b.Publish(ctx, ev); err != nil {
			b.logger.Warn().Err(err).Str("action", action).Str("event_id", ev.ID).Msg("broadcast: delivery failed")
			return
		}
		b.logger.Debug().Str("action", action).Str("event_id", ev.ID).Msg("broadcast: delivered")
	}()
}

// Wait blocks until every NotifyAll delivery in flight has finished.
func (b *Broadcaster) Wait() {
	b.pending.Wait()
}

// NotifyConfigChanged announces a new baseline. The api key is redacted.
func (b *Broadcaster) NotifyConfigChanged(ctx context.Context, cfg domain.Config) {
	payload, err := json.Marshal(struct {
		Config domain.Config `json:"config"`
	}{Config: cfg.Redacted()})
	if err != nil {
		b.logger.Error().Err(err).Msg("broadcast: encode config")
		return
	}
	b.NotifyAll(ctx, domain.EventConfigUpdated, payload)
}

package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrQueueFull is returned when an event is dropped because the buffer is full.
	ErrQueueFull = errors.New("notification queue full")
	// ErrClosed is returned for events sent after Close.
	ErrClosed = errors.New("notifier closed")
)

// DefaultDeliveryTimeout bounds each delivery attempt of an Async notifier.
const DefaultDeliveryTimeout = 5 * time.Second

type message struct {
	event   string
	payload any
}

// Async hands events to a single background goroutine that delivers them to
// the wrapped Notifier. Notify never blocks.
type Async struct {
	next    Notifier
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan message
	done   chan struct{}
}

// NewAsync starts delivering to next with room for buffer pending events.
func NewAsync(next Notifier, buffer int, logger *slog.Logger) *Async {
	if buffer < 1 {
		buffer = 1
	}
	a := &Async{
		next:    next,
		logger:  logger,
		timeout: DefaultDeliveryTimeout,
		queue:   make(chan message, buffer),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Notify queues the event. The caller's context is not used for delivery,
// which happens after the caller has moved on.
func (a *Async) Notify(_ context.Context, event string, payload any) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrClosed
	}

	select {
	case a.queue <- message{event: event, payload: payload}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits until queued ones are delivered or
// ctx is done.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) run() {
	defer close(a.done)

	for m := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.next.Notify(ctx, m.event, m.payload); err != nil {
			a.logger.Warn("delivering event", "type", m.event, "error", err)
		}
		cancel()
	}
}

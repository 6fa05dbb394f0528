package event

import (
	"context"
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	"github.com/example/notification-service/internal/models"
)

// Observer consumes notification events. Implementations run synchronously
// on the notifier's calling goroutine; slow I/O should be handed off
// internally rather than blocking here.
type Observer interface {
	Name() string
	Update(ctx context.Context, ev models.NotificationEvent)
}

// Notifier fans out events to attached observers in attachment order. The
// subscriber list is append-only and guarded by a read-mostly lock, so one
// Notifier is safe to share across concurrent dispatches.
type Notifier struct {
	logger zerolog.Logger

	mu        sync.RWMutex
	observers []Observer
}

// NewNotifier constructs an empty notifier.
func NewNotifier(logger zerolog.Logger) *Notifier {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Notifier{logger: logger}
}

// Attach appends an observer. Nil observers are ignored.
func (n *Notifier) Attach(o Observer) {
	if o == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, o)
}

// Notify delivers the event to every observer in attachment order. Each
// invocation is isolated: a panicking observer is logged and the remaining
// observers are still notified. Observer failures never surface to the
// dispatch path.
func (n *Notifier) Notify(ctx context.Context, ev models.NotificationEvent) {
	n.mu.RLock()
	observers := n.observers
	n.mu.RUnlock()

	for _, o := range observers {
		n.dispatch(ctx, o, ev)
	}
}

func (n *Notifier) dispatch(ctx context.Context, o Observer, ev models.NotificationEvent) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error().
				Str("observer", o.Name()).
				Str("message_id", ev.ID).
				Interface("panic", r).
				Msg("observer panicked during notification")
		}
	}()
	o.Update(ctx, ev)
}

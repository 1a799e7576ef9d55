package audit

import (
	"log/slog"
	"time"

	"github.com/abuse-guard/internal/pkg/id"
)

// Event kinds recorded by the abuse trail.
const (
	EventOTPIssued       = "otp_issued"
	EventOTPVerified     = "otp_verified"
	EventDeliveryFailed  = "delivery_failed"
	EventRestricted      = "restricted"
	EventSpamLocked      = "spam_locked"
	EventAccountLocked   = "account_locked"
	EventRateLimited     = "rate_limited"
)

// Event is a single abuse-trail record.
type Event struct {
	ID         string
	Kind       string
	Identifier string
	Detail     string
	At         time.Time
}

// Dispatcher fans abuse events out to slog on a background goroutine.
// Emit never blocks the request path: when the buffer is full the event is
// dropped and the drop itself is logged.
type Dispatcher struct {
	ch     chan Event
	logger *slog.Logger
	done   chan struct{}
}

// NewDispatcher starts a dispatcher with the given buffer size.
func NewDispatcher(logger *slog.Logger, buffer int) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 256
	}
	d := &Dispatcher{
		ch:     make(chan Event, buffer),
		logger: logger,
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.ch {
		d.logger.Info("abuse event",
			"event_id", ev.ID,
			"kind", ev.Kind,
			"identifier", ev.Identifier,
			"detail", ev.Detail,
			"at", ev.At,
		)
	}
}

// Emit records an event. Safe for concurrent use; drops when saturated.
func (d *Dispatcher) Emit(kind, identifier, detail string) {
	if d == nil {
		return
	}
	ev := Event{
		ID:         id.New(),
		Kind:       kind,
		Identifier: identifier,
		Detail:     detail,
		At:         time.Now().UTC(),
	}
	select {
	case d.ch <- ev:
	default:
		d.logger.Warn("audit buffer full, dropping event", "kind", kind)
	}
}

// Close flushes buffered events and stops the dispatcher.
func (d *Dispatcher) Close() {
	close(d.ch)
	<-d.done
}

package notification

import (
	"context"
	"sync"

	"github.com/unxchange/auth-service/internal/logging"
)

// Sender delivers a single user-created event.
type Sender interface {
	SendUserCreated(ctx context.Context, event UserCreatedEvent) error
}

// NopSender discards events. Used when no notification service is
// configured, keeping the dispatch path identical in every environment.
type NopSender struct{}

func (NopSender) SendUserCreated(context.Context, UserCreatedEvent) error { return nil }

// Dispatcher decouples registration from notification delivery through a
// buffered queue and a background worker. Enqueueing never blocks and never
// fails the caller: when the queue is full the event is dropped and logged.
// Delivery failures are logged and swallowed - the contract is
// at-least-effort, not at-least-once.
type Dispatcher struct {
	sender Sender
	logger *logging.Logger
	queue  chan UserCreatedEvent
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewDispatcher(sender Sender, logger *logging.Logger, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}

	d := &Dispatcher{
		sender: sender,
		logger: logger,
		queue:  make(chan UserCreatedEvent, queueSize),
		done:   make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

// NotifyUserCreated enqueues a welcome notification for a new user.
// Implements the auth.Notifier contract.
func (d *Dispatcher) NotifyUserCreated(name, email string) {
	event := NewUserCreatedEvent(name, email)

	select {
	case d.queue <- event:
	case <-d.done:
		d.logger.Warn("notification dropped: dispatcher closed", "email", email)
	default:
		d.logger.Warn("notification dropped: queue full", "email", email, "event_id", event.EventID)
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.done:
			// Drain whatever is already queued, then stop.
			for {
				select {
				case event := <-d.queue:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(event UserCreatedEvent) {
	// Deliveries run on their own context so an aborted request can't
	// cancel a notification already committed to the queue.
	if err := d.sender.SendUserCreated(context.Background(), event); err != nil {
		d.logger.Warn("failed to deliver welcome notification",
			"email", event.Email,
			"event_id", event.EventID,
			"error", err,
		)
		return
	}
	d.logger.Info("welcome notification delivered",
		"email", event.Email,
		"event_id", event.EventID,
	)
}

// Close stops accepting events and waits for queued ones to drain.
// Call after the HTTP server has stopped producing registrations.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.done)
	})
	d.wg.Wait()
}

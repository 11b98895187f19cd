package notification

import (
	"context"
	"sync"
	"time"

	"bookingpay/models"

	"go.uber.org/zap"
)

// Dispatcher fans events out to sinks from a buffered channel. A full buffer drops the event
// with a warning rather than stalling the transition that produced it.
type Dispatcher struct {
	events  chan models.BookingEvent
	sinks   []Sink
	logger  *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(buffer int, logger *zap.Logger, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	return &Dispatcher{
		events:  make(chan models.BookingEvent, buffer),
		sinks:   sinks,
		logger:  logger,
		timeout: 10 * time.Second,
	}
}

func (d *Dispatcher) Notify(event models.BookingEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.events <- event:
	default:
		d.logger.Warn("Notification buffer full, dropping event",
			zap.String("bookingId", event.BookingID),
			zap.String("kind", string(event.Kind)),
			zap.String("status", event.NewStatus))
	}
}

// Start runs the delivery loop until Stop is called.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for event := range d.events {
			d.deliver(event)
		}
	}()
}

// Stop stops accepting events and waits for the buffered ones to be delivered.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) deliver(event models.BookingEvent) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := sink.Deliver(ctx, event); err != nil {
			d.logger.Error("Event delivery failed",
				zap.String("sink", sink.Name()),
				zap.String("bookingId", event.BookingID),
				zap.String("status", event.NewStatus),
				zap.Error(err))
		}
		cancel()
	}
}

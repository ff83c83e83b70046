package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Worker decouples request handling from event delivery: Enqueue never
// blocks, a full buffer drops the event with a warning, and delivery happens
// on one background goroutine.
type Worker struct {
	publisher Publisher
	log       *slog.Logger
	events    chan Event

	stopOnce sync.Once
	done     chan struct{}
}

// NewWorker builds a worker with the given buffer size.
func NewWorker(publisher Publisher, log *slog.Logger, buffer int) *Worker {
	if buffer <= 0 {
		buffer = 256
	}
	return &Worker{
		publisher: publisher,
		log:       log,
		events:    make(chan Event, buffer),
		done:      make(chan struct{}),
	}
}

// Enqueue hands an event to the worker without blocking the caller.
func (w *Worker) Enqueue(event Event) {
	select {
	case w.events <- event:
	default:
		w.log.Warn("audit buffer full, dropping event",
			"entity", event.Entity,
			"action", event.Action,
		)
	}
}

// Run delivers events until the context is canceled, then drains the buffer.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case event := <-w.events:
			w.publish(event)
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

// Stop waits for Run to finish draining. Call after canceling Run's context.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		select {
		case <-w.done:
		case <-time.After(5 * time.Second):
			w.log.Warn("audit worker stop timed out")
		}
	})
}

func (w *Worker) drain() {
	for {
		select {
		case event := <-w.events:
			w.publish(event)
		default:
			return
		}
	}
}

func (w *Worker) publish(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := w.publisher.Publish(ctx, event); err != nil {
		w.log.Error("audit publish failed",
			"entity", event.Entity,
			"action", event.Action,
			"error", err,
		)
	}
}

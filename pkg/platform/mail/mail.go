// Package mail defines the outbound mail contract. Real delivery (SMTP,
// provider APIs) lives outside this module; services enqueue messages and a
// worker hands them to whatever Sender is wired in.
package mail

import (
	"context"
	"log/slog"
	"sync"
)

// Message is one outbound mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Enqueuer is the narrow surface services depend on.
type Enqueuer interface {
	Enqueue(msg Message)
}

// Worker queues messages and delivers them off the request path. Enqueue
// never blocks; a full buffer drops the message with a warning.
type Worker struct {
	sender Sender
	log    *slog.Logger
	queue  chan Message
	done   chan struct{}
}

func NewWorker(sender Sender, log *slog.Logger, buffer int) *Worker {
	if buffer <= 0 {
		buffer = 64
	}
	return &Worker{
		sender: sender,
		log:    log,
		queue:  make(chan Message, buffer),
		done:   make(chan struct{}),
	}
}

func (w *Worker) Enqueue(msg Message) {
	select {
	case w.queue <- msg:
	default:
		w.log.Warn("mail buffer full, dropping message", "to", msg.To, "subject", msg.Subject)
	}
}

func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case msg := <-w.queue:
			w.deliver(msg)
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case msg := <-w.queue:
			w.deliver(msg)
		default:
			return
		}
	}
}

func (w *Worker) deliver(msg Message) {
	if err := w.sender.Send(context.Background(), msg); err != nil {
		w.log.Error("mail delivery failed", "to", msg.To, "error", err)
	}
}

func (w *Worker) Stop() {
	<-w.done
}

// LogSender is the development Sender: it logs instead of delivering.
type LogSender struct {
	Log *slog.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Log.Info("mail (not delivered)", "to", msg.To, "subject", msg.Subject)
	return nil
}

// MemorySender captures messages for test assertions.
type MemorySender struct {
	mu       sync.Mutex
	messages []Message
}

func NewMemorySender() *MemorySender { return &MemorySender{} }

func (s *MemorySender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *MemorySender) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

package audit

import (
	"context"

	"github.com/google/uuid"

	"gather/pkg/requestcontext"
)

// Counters receives the emitted-event count. A nil Counters disables it.
type Counters interface {
	IncrementAuditEventsEmitted()
}

// Recorder turns repository mutations and ownership denials into audit
// events, annotated with the request metadata the middleware collected.
type Recorder struct {
	worker   *Worker
	counters Counters
}

func NewRecorder(worker *Worker, counters Counters) *Recorder {
	return &Recorder{worker: worker, counters: counters}
}

func (r *Recorder) Mutation(ctx context.Context, entity, action string, ids []uuid.UUID) {
	r.record(ctx, entity, action, ids, false)
}

func (r *Recorder) Denied(ctx context.Context, entity, action string) {
	r.record(ctx, entity, action, nil, true)
}

func (r *Recorder) record(ctx context.Context, entity, action string, ids []uuid.UUID, denied bool) {
	event := Event{
		ID:        uuid.New(),
		Action:    action,
		Entity:    entity,
		Denied:    denied,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
		At:        requestcontext.Now(ctx),
	}
	if actor, ok := requestcontext.UserID(ctx); ok {
		event.ActorID = actor.String()
	}
	for _, id := range ids {
		event.EntityIDs = append(event.EntityIDs, id.String())
	}
	r.worker.Enqueue(event)
	if r.counters != nil {
		r.counters.IncrementAuditEventsEmitted()
	}
}

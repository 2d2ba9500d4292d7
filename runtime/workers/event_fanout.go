package workers

import (
	"collab-chat/contract"
	"context"
	"log/slog"
	"time"
)

var _ contract.Worker = (*EventFanoutWorker)(nil)

// EventFanoutWorker delivers each broadcast to the members of its snapshot,
// then to the permanent sinks (stats, logs).
//
// Delivery is at most once per recipient: a sink failing or exceeding the
// sink timeout simply misses the envelope. Deliveries are handled one at a
// time so a connection receives envelopes in the order they were broadcast.
type EventFanoutWorker struct {
	log            *slog.Logger
	deliveries     <-chan contract.Delivery
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
}

func NewEventFanoutWorker(log *slog.Logger, deliveries <-chan contract.Delivery,
	sinkTimeout time.Duration, permanentSinks ...contract.EventSink) *EventFanoutWorker {
	return &EventFanoutWorker{
		log:            log,
		deliveries:     deliveries,
		permanentSinks: permanentSinks,
		sinkTimeout:    sinkTimeout,
	}
}

func (w *EventFanoutWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		case delivery, ok := <-w.deliveries:
			if !ok {
				w.log.Debug("Delivery channel is closed")
				return nil
			}
			w.Fanout(ctx, delivery)
		}
	}
}

// Fanout One consume per member of the snapshot, then one per permanent sink
func (w *EventFanoutWorker) Fanout(ctx context.Context, delivery contract.Delivery) {
	env := delivery.Envelope
	for _, member := range delivery.Members {
		if err := w.consume(ctx, member.Sink, delivery); err != nil {
			w.log.Debug("Delivery to member failed",
				"room", env.RoomID(), "connection", member.ConnectionID, "error", err)
		}
	}
	for _, sink := range w.permanentSinks {
		if err := w.consume(ctx, sink, delivery); err != nil {
			w.log.Debug("Delivery to permanent sink failed", "room", env.RoomID(), "error", err)
		}
	}
}

func (w *EventFanoutWorker) consume(ctx context.Context, sink contract.EventSink, delivery contract.Delivery) error {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()
	return sink.Consume(sinkCtx, delivery.Envelope)
}

package workers

import (
	"collab-chat/contract"
	"collab-chat/domain"
	"collab-chat/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Ensure *AssistantWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*AssistantWorker)(nil)

// AssistantWorker takes AI prompt requests from the shared queue, calls the
// generator and broadcasts the reply to the whole room, sender included.
//
// Generation runs under the worker context bounded by timeout, never under the
// context of the requesting connection: a disconnect does not cancel the call.
// Failures are logged and reported to the room with a System envelope.
type AssistantWorker struct {
	jobs        <-chan contract.AssistantJob
	generator   contract.Generator
	broadcaster contract.Broadcaster
	timeout     time.Duration
	log         *slog.Logger
}

func NewAssistantWorker(
	jobs <-chan contract.AssistantJob,
	generator contract.Generator,
	broadcaster contract.Broadcaster,
	timeout time.Duration,
	log *slog.Logger) *AssistantWorker {
	return &AssistantWorker{
		jobs:        jobs,
		generator:   generator,
		broadcaster: broadcaster,
		timeout:     timeout,
		log:         log,
	}
}

func (w *AssistantWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping assistant worker")
			return nil
		case job, ok := <-w.jobs:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			w.Handle(ctx, job)
		}
	}
}

// Handle produces exactly one Assistant or System envelope for the job.
func (w *AssistantWorker) Handle(ctx context.Context, job contract.AssistantJob) {
	genCtx, cancel := context.WithTimeout(ctx, w.timeout)
	reply, err := w.generator.Generate(genCtx, job.Prompt)
	cancel()

	if err == nil && strings.TrimSpace(reply) == "" {
		err = fmt.Errorf("%w: empty reply", errors.ErrGeneration)
	}

	var env domain.Envelope
	if err != nil {
		w.log.Error("AI generation failed",
			"room", job.Room,
			"requested_by", job.RequestedBy,
			"elapsed", time.Since(job.RequestedAt),
			"error", err)
		env = domain.NewEnvelope(job.Room, domain.System{}, domain.GenerationFailureNotice)
	} else {
		w.log.Debug("AI reply generated", "room", job.Room, "elapsed", time.Since(job.RequestedAt))
		env = domain.NewEnvelope(job.Room, domain.Assistant{}, reply)
	}

	if err := w.broadcaster.Broadcast(ctx, env); err != nil {
		w.log.Warn("AI reply not broadcast", "room", job.Room, "error", err)
	}
}

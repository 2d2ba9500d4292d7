package runtime

import (
	"collab-chat/ai"
	"collab-chat/contract"
	"collab-chat/domain"
	"collab-chat/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// Prompter extracts the AI prompt from a message carrying a trigger marker.
type Prompter interface {
	Extract(message string) (string, bool)
}

// Router relays every message of a connection to its room and hands
// triggered prompts to the assistant workers without waiting for them.
//
// When the assistant queue is full the prompt is dropped and the room receives
// the System failure notice. This is the only case where a trigger gets no
// Assistant reply at all.
type Router struct {
	log              *slog.Logger
	broadcaster      contract.Broadcaster
	prompter         Prompter
	jobs             chan<- contract.AssistantJob
	maxMessageLength int
}

func NewRouter(log *slog.Logger, broadcaster contract.Broadcaster, prompter Prompter,
	jobs chan<- contract.AssistantJob, maxMessageLength int) *Router {
	return &Router{
		log:              log,
		broadcaster:      broadcaster,
		prompter:         prompter,
		jobs:             jobs,
		maxMessageLength: maxMessageLength,
	}
}

// OnMessage handles one inbound message of an authenticated, joined connection.
// Empty and over-long bodies fail with ErrInvalidPayload and are not relayed.
func (r *Router) OnMessage(ctx context.Context, conn *Connection, body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: empty message", errors.ErrInvalidPayload)
	}
	if r.maxMessageLength > 0 && utf8.RuneCountInString(body) > r.maxMessageLength {
		return fmt.Errorf("%w: message longer than %d characters", errors.ErrInvalidPayload, r.maxMessageLength)
	}

	env := domain.NewEnvelope(conn.Room, domain.Human{Identity: conn.Identity}, body)
	if err := r.broadcaster.Broadcast(ctx, env, conn.ID); err != nil {
		return err
	}

	prompt, ok := r.prompter.Extract(body)
	if !ok {
		return nil
	}

	job := contract.AssistantJob{
		Room:        conn.Room,
		Prompt:      contract.Prompt{Text: prompt, Language: ai.DetectLanguage(prompt)},
		RequestedBy: conn.Identity.Email,
		RequestedAt: time.Now().UTC(),
	}
	select {
	case r.jobs <- job:
		r.log.Debug("AI prompt queued", "room", conn.Room, "connection", conn.ID, "language", job.Prompt.Language)
		return nil
	default:
		r.log.Warn("AI prompt rejected", "room", conn.Room, "connection", conn.ID, "error", errors.ErrAssistantBusy)
		notice := domain.NewEnvelope(conn.Room, domain.System{}, domain.GenerationFailureNotice)
		return r.broadcaster.Broadcast(ctx, notice)
	}
}

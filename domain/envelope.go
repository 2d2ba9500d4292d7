package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	AssistantTag = "AI"
	SystemTag    = "system"
)

// Sender is the author of an envelope: Human, Assistant or System.
// The set is closed, only this package can add variants.
type Sender interface {
	// Tag is the value sent on the wire in the sender field.
	Tag() string
	sender()
}

// Human is a collaborator authenticated at handshake.
type Human struct {
	Identity Identity
}

func (h Human) Tag() string { return h.Identity.Email }
func (Human) sender()       {}

// Assistant is only produced by the completion path of the AI gateway.
type Assistant struct{}

func (Assistant) Tag() string { return AssistantTag }
func (Assistant) sender()     {}

// System carries gateway notices such as a failed generation.
type System struct{}

func (System) Tag() string { return SystemTag }
func (System) sender()     {}

// Envelope is a chat message annotated with its sender.
type Envelope struct {
	ID     uuid.UUID
	Room   ProjectID
	Sender Sender
	Body   string
	At     time.Time
}

func NewEnvelope(room ProjectID, sender Sender, body string) Envelope {
	return Envelope{
		ID:     uuid.New(),
		Room:   room,
		Sender: sender,
		Body:   body,
		At:     time.Now().UTC(),
	}
}

func (e Envelope) RoomID() ProjectID {
	return e.Room
}

// IsAssistant reports whether the envelope was produced by the AI gateway completion path.
func (e Envelope) IsAssistant() bool {
	_, ok := e.Sender.(Assistant)
	return ok
}

// GenerationFailureNotice is the body of the System envelope sent when no AI reply can be produced.
const GenerationFailureNotice = "AI could not generate a response"

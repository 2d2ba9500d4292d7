//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"collab-chat/domain"
	"context"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used in supervision logs, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives envelopes delivered to a room member or to a permanent observer.
type EventSink interface {
	Consume(ctx context.Context, e domain.Envelope) error
}

// ConnectionID identifies one live client session.
type ConnectionID string

// Member is one entry of a room membership snapshot.
type Member struct {
	ConnectionID ConnectionID
	Sink         EventSink
}

// IRegistry holds the room id -> member set mapping. Join and Leave are atomic
// with respect to Snapshot.
type IRegistry interface {
	Join(connID ConnectionID, roomID domain.ProjectID, sink EventSink) error
	Leave(connID ConnectionID) (domain.ProjectID, bool)
	Snapshot(roomID domain.ProjectID, exclude ...ConnectionID) []Member
	RoomOf(connID ConnectionID) (domain.ProjectID, bool)
	Stats() RegistryStats
}

type RegistryStats struct {
	Rooms       int
	Connections int
}

// Broadcaster delivers an envelope to every member of its room except the excluded ones.
type Broadcaster interface {
	Broadcast(ctx context.Context, env domain.Envelope, exclude ...ConnectionID) error
}

// IdentityVerifier validates a bearer credential and extracts the caller identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (domain.Identity, error)
}

// ProjectResolver resolves a project by id. It returns errors.ErrProjectNotFound
// when no project matches.
type ProjectResolver interface {
	FindProject(ctx context.Context, id domain.ProjectID) (domain.Project, error)
}

// Prompt is the text sent to the AI gateway plus an optional language hint.
type Prompt struct {
	Text     string
	Language string
}

// Generator is the AI Invocation Gateway. It fails with errors.ErrGeneration.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// TokenRevoker records logged out credentials until their expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Delivery is a broadcast envelope bound to the membership snapshot taken when it was issued.
type Delivery struct {
	Envelope domain.Envelope
	Members  []Member
}

// AssistantJob is one AI prompt request waiting for a generation slot.
type AssistantJob struct {
	Room        domain.ProjectID
	Prompt      Prompt
	RequestedBy string
	RequestedAt time.Time
}

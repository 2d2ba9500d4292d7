package services

import (
	"collab-chat/auth"
	"collab-chat/runtime"
	"context"
	"log/slog"
)

type IChatService interface {
	Connect(ctx context.Context, credential, projectID string) (*runtime.Connection, error)
	Join(conn *runtime.Connection) error
	PostMessage(ctx context.Context, conn *runtime.Connection, body string) error
	Disconnect(conn *runtime.Connection)
}

// ChatService admits connections through the handshake and binds them to their room.
type ChatService struct {
	log                  *slog.Logger
	authenticator        *auth.Authenticator
	orchestrator         *runtime.Orchestrator
	connectionBufferSize int
}

func NewChatService(log *slog.Logger, authenticator *auth.Authenticator,
	o *runtime.Orchestrator, connectionBufferSize int) *ChatService {
	return &ChatService{
		log:                  log,
		authenticator:        authenticator,
		orchestrator:         o,
		connectionBufferSize: connectionBufferSize,
	}
}

// Connect runs the handshake and builds the connection bound to the project room.
// The room is only joined by Join, once the channel is established.
func (s *ChatService) Connect(ctx context.Context, credential, projectID string) (*runtime.Connection, error) {
	hc, err := s.authenticator.Authenticate(ctx, credential, projectID)
	if err != nil {
		return nil, err
	}
	return runtime.NewConnection(hc.Identity, hc.Room, s.connectionBufferSize), nil
}

func (s *ChatService) Join(conn *runtime.Connection) error {
	if err := s.orchestrator.Join(conn); err != nil {
		return err
	}
	s.log.Info("Connection accepted", "connection", conn.ID, "room", conn.Room, "user", conn.Identity.Email)
	return nil
}

func (s *ChatService) PostMessage(ctx context.Context, conn *runtime.Connection, body string) error {
	return s.orchestrator.OnMessage(ctx, conn, body)
}

// Disconnect is idempotent.
func (s *ChatService) Disconnect(conn *runtime.Connection) {
	if conn == nil {
		return
	}
	s.orchestrator.Leave(conn)
	s.log.Debug("Connection closed", "connection", conn.ID, "room", conn.Room)
}

package websocket

import (
	"collab-chat/auth"
	"collab-chat/errors"
	"collab-chat/runtime"
	"collab-chat/services"
	"context"
	"encoding/json"
	goerrors "errors"
	"log/slog"
	"net/http"

	"golang.org/x/net/websocket"
)

const (
	projectIDParam        = "projectId"
	maxFramePayloadBytes  = 64 * 1024
	maxDecodeErrorsInARow = 20
)

// Server is the websocket gateway. The handshake runs on the plain HTTP request,
// so a rejected attempt never upgrades and never reaches a room.
type Server struct {
	log  *slog.Logger
	chat services.IChatService
}

func NewServer(log *slog.Logger, chat services.IChatService) *Server {
	return &Server{log: log, chat: chat}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	projectID := r.URL.Query().Get(projectIDParam)
	conn, err := s.chat.Connect(r.Context(), auth.CredentialFromRequest(r), projectID)
	if err != nil {
		s.reject(w, r, projectID, err)
		return
	}
	// Leave runs whether or not the upgrade succeeded
	defer s.chat.Disconnect(conn)

	// Only an upgraded channel becomes a room member
	upgrader := websocket.Server{
		Handler: func(ws *websocket.Conn) {
			ws.MaxPayloadBytes = maxFramePayloadBytes
			if err := s.chat.Join(conn); err != nil {
				s.log.Error("Join failed", "connection", conn.ID, "room", conn.Room, "error", err)
				_ = ws.Close()
				return
			}
			s.serve(ws, conn)
		},
	}
	upgrader.ServeHTTP(w, r)
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request, projectID string, err error) {
	code := errors.Code(err)
	status := errors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("Handshake failed", "room", projectID, "remote", r.RemoteAddr, "error", err)
	} else {
		s.log.Warn("Handshake rejected", "code", code, "room", projectID, "remote", r.RemoteAddr)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HandshakeError{Code: code, Message: handshakeMessage(err)})
}

func handshakeMessage(err error) string {
	switch {
	case goerrors.Is(err, errors.ErrInvalidRoomID):
		return "invalid project id"
	case goerrors.Is(err, errors.ErrRoomNotFound):
		return "project not found"
	case goerrors.Is(err, errors.ErrMissingCredential):
		return "authentication error"
	case goerrors.Is(err, errors.ErrInvalidCredential):
		return "invalid or expired token"
	default:
		return "internal error"
	}
}

// serve runs the writer in its own goroutine and the reader on the current one.
// Inbound messages of a connection are handled one at a time, in order.
func (s *Server) serve(ws *websocket.Conn, conn *runtime.Connection) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer func() { _ = ws.Close() }()

	go s.write(ctx, ws, conn)

	decodeErrors := 0
	for {
		var raw []byte
		if err := websocket.Message.Receive(ws, &raw); err != nil {
			s.log.Debug("Connection reader stopped", "connection", conn.ID, "error", err)
			return
		}

		message, err := DecodeInbound(raw)
		if err != nil {
			decodeErrors++
			s.log.Debug("Malformed frame dropped", "connection", conn.ID, "error", err)
			if decodeErrors >= maxDecodeErrorsInARow {
				s.log.Warn("Too many malformed frames, closing", "connection", conn.ID)
				return
			}
			continue
		}
		decodeErrors = 0

		if err := s.chat.PostMessage(ctx, conn, message); err != nil {
			if goerrors.Is(err, errors.ErrInvalidPayload) {
				s.log.Debug("Message dropped", "connection", conn.ID, "error", err)
				continue
			}
			s.log.Warn("Message not relayed", "connection", conn.ID, "room", conn.Room, "error", err)
		}
	}
}

func (s *Server) write(ctx context.Context, ws *websocket.Conn, conn *runtime.Connection) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Done():
			return
		case env := <-conn.Outbox():
			frame, err := EncodeEnvelope(env)
			if err != nil {
				s.log.Error("Envelope encoding failed", "connection", conn.ID, "error", err)
				continue
			}
			if err := websocket.JSON.Send(ws, frame); err != nil {
				s.log.Debug("Connection writer stopped", "connection", conn.ID, "error", err)
				_ = ws.Close()
				return
			}
		}
	}
}

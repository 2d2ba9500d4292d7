package websocket

import (
	"collab-chat/ai"
	"collab-chat/auth"
	"collab-chat/domain"
	"collab-chat/errors"
	"collab-chat/mocks"
	"collab-chat/runtime"
	"collab-chat/runtime/workers"
	"collab-chat/services"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/net/websocket"
)

const (
	projectP1      = "507f1f77bcf86cd799439011"
	projectP2      = "5f1d7f4e2c3b4a5968778899"
	unknownProject = "507f191e810c19729de860ea"
)

type gateway struct {
	srv          *httptest.Server
	tokens       *auth.TokenManager
	orchestrator *runtime.Orchestrator
}

// newGateway wires the real stack behind an httptest server, with a fake AI endpoint answering aiReply.
func newGateway(t *testing.T, aiReply string, aiStatus int) *gateway {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	aiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if aiStatus != http.StatusOK {
			w.WriteHeader(aiStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"output_text": aiReply})
	}))
	t.Cleanup(aiServer.Close)

	resolver := mocks.NewMockProjectResolver(ctrl)
	resolver.EXPECT().FindProject(gomock.Any(), domain.ProjectID(projectP1)).
		Return(domain.Project{ID: projectP1}, nil).AnyTimes()
	resolver.EXPECT().FindProject(gomock.Any(), domain.ProjectID(projectP2)).
		Return(domain.Project{ID: projectP2}, nil).AnyTimes()
	resolver.EXPECT().FindProject(gomock.Any(), domain.ProjectID(unknownProject)).
		Return(domain.Project{}, errors.ErrProjectNotFound).AnyTimes()

	tokens := auth.NewTokenManager("secret", time.Hour, nil)
	o, err := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 0), runtime.NewRegistry(),
		ai.NewHTTPGateway(ai.Config{BaseURL: aiServer.URL, APIKey: "test"}),
		runtime.OrchestratorConfig{
			NumberOfAIWorkers: 2,
			BufferSize:        16,
			AIQueueSize:       4,
			MaxMessageLength:  1000,
			AITimeout:         time.Second,
			SinkTimeout:       200 * time.Millisecond,
			Triggers:          []string{"@ai"},
		})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = o.Start(ctx)
		close(done)
	}()

	chat := services.NewChatService(log, auth.NewAuthenticator(resolver, tokens, log), o, 16)
	mux := http.NewServeMux()
	mux.Handle("/ws", NewServer(log, chat))
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return &gateway{srv: srv, tokens: tokens, orchestrator: o}
}

func (g *gateway) token(t *testing.T, email string) string {
	t.Helper()
	token, err := g.tokens.GenerateToken(domain.User{ID: email, Email: email})
	require.NoError(t, err)
	return token
}

func (g *gateway) url(token, projectID string) string {
	q := url.Values{}
	if token != "" {
		q.Set("token", token)
	}
	q.Set("projectId", projectID)
	return g.srv.URL + "/ws?" + q.Encode()
}

// dial returns once the new connection has joined its room.
func (g *gateway) dial(t *testing.T, token, projectID string) *websocket.Conn {
	t.Helper()
	joined := g.orchestrator.Stats().Connections
	wsURL := "ws" + strings.TrimPrefix(g.url(token, projectID), "http")
	conn, err := websocket.Dial(wsURL, "", g.srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool {
		return g.orchestrator.Stats().Connections == joined+1
	}, 2*time.Second, 5*time.Millisecond)
	return conn
}

func send(t *testing.T, conn *websocket.Conn, message string) {
	t.Helper()
	frame, err := NewMessageFrame(message)
	require.NoError(t, err)
	require.NoError(t, websocket.JSON.Send(conn, frame))
}

func read(t *testing.T, conn *websocket.Conn) OutboundMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	msg, err := DecodeOutbound(frame)
	require.NoError(t, err)
	return msg
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	var frame Frame
	require.Error(t, websocket.JSON.Receive(conn, &frame))
}

func TestGateway_RelayToOtherMember(t *testing.T) {
	req := require.New(t)
	g := newGateway(t, "unused", http.StatusOK)

	alice := g.dial(t, g.token(t, "a@x.com"), projectP1)
	bob := g.dial(t, g.token(t, "b@x.com"), projectP1)

	// When alice says hello
	send(t, alice, "hello")

	// Then bob receives it from alice, alice gets nothing back
	msg := read(t, bob)
	req.Equal("hello", msg.Message)
	req.Equal("a@x.com", msg.Sender)
	expectSilence(t, alice)
}

func TestGateway_AssistantReplyToWholeRoom(t *testing.T) {
	req := require.New(t)
	g := newGateway(t, "4", http.StatusOK)

	alice := g.dial(t, g.token(t, "a@x.com"), projectP1)
	bob := g.dial(t, g.token(t, "b@x.com"), projectP1)

	send(t, alice, "@ai what is 2+2")

	// Then bob sees the raw message then the reply
	req.Equal("@ai what is 2+2", read(t, bob).Message)
	reply := read(t, bob)
	req.Equal(OutboundMessage{Message: "4", Sender: "AI", Timestamp: reply.Timestamp}, reply)

	// Then alice receives the reply too
	reply = read(t, alice)
	req.Equal("AI", reply.Sender)
	req.Equal("4", reply.Message)
}

func TestGateway_AssistantFailureNotice(t *testing.T) {
	req := require.New(t)
	g := newGateway(t, "", http.StatusTooManyRequests)

	alice := g.dial(t, g.token(t, "a@x.com"), projectP1)

	send(t, alice, "@ai hello")

	// Then the room is told and the connection stays usable
	notice := read(t, alice)
	req.Equal("system", notice.Sender)
	req.Equal(domain.GenerationFailureNotice, notice.Message)

	bob := g.dial(t, g.token(t, "b@x.com"), projectP1)
	send(t, alice, "still alive")
	req.Equal("still alive", read(t, bob).Message)
}

func TestGateway_RejectedHandshakes(t *testing.T) {
	g := newGateway(t, "unused", http.StatusOK)
	expired := auth.NewTokenManager("secret", -time.Minute, nil)
	expiredToken, err := expired.GenerateToken(domain.User{ID: "u1", Email: "a@x.com"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		token      string
		projectID  string
		wantStatus int
		wantCode   string
	}{
		{"malformed project id", g.token(t, "a@x.com"), "not-an-id", http.StatusBadRequest, "INVALID_ROOM_ID"},
		{"unknown project", g.token(t, "a@x.com"), unknownProject, http.StatusNotFound, "ROOM_NOT_FOUND"},
		{"missing credential", "", projectP1, http.StatusUnauthorized, "MISSING_CREDENTIAL"},
		{"expired credential", expiredToken, projectP1, http.StatusUnauthorized, "INVALID_CREDENTIAL"},
		{"garbage credential", "garbage", projectP1, http.StatusUnauthorized, "INVALID_CREDENTIAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			res, err := http.Get(g.url(tt.token, tt.projectID))
			req.NoError(err)
			defer func() { _ = res.Body.Close() }()

			req.Equal(tt.wantStatus, res.StatusCode)
			var body HandshakeError
			req.NoError(json.NewDecoder(res.Body).Decode(&body))
			req.Equal(tt.wantCode, body.Code)

			// Then no websocket is ever established
			wsURL := "ws" + strings.TrimPrefix(g.url(tt.token, tt.projectID), "http")
			_, err = websocket.Dial(wsURL, "", g.srv.URL)
			req.Error(err)
		})
	}
}

func TestGateway_DisconnectedMemberIsSkipped(t *testing.T) {
	req := require.New(t)
	g := newGateway(t, "unused", http.StatusOK)

	alice := g.dial(t, g.token(t, "a@x.com"), projectP1)
	bob := g.dial(t, g.token(t, "b@x.com"), projectP1)
	carol := g.dial(t, g.token(t, "c@x.com"), projectP1)

	// When alice disconnects
	req.NoError(alice.Close())

	// Then bob still reaches carol
	send(t, bob, "anyone?")
	req.Equal("anyone?", read(t, carol).Message)
}

func TestGateway_MalformedFramesAreDropped(t *testing.T) {
	req := require.New(t)
	g := newGateway(t, "unused", http.StatusOK)

	alice := g.dial(t, g.token(t, "a@x.com"), projectP1)
	bob := g.dial(t, g.token(t, "b@x.com"), projectP1)

	// Given garbage, an unknown event, a non text body and an empty body
	req.NoError(websocket.Message.Send(alice, "not json"))
	req.NoError(websocket.JSON.Send(alice, map[string]any{"event": "typing", "data": map[string]any{"message": "x"}}))
	req.NoError(websocket.JSON.Send(alice, map[string]any{"event": EventProjectMessage, "data": map[string]any{"message": 42}}))
	send(t, alice, "   ")

	// When a valid message follows
	send(t, alice, "valid")

	// Then only the valid one is relayed
	req.Equal("valid", read(t, bob).Message)
}

func TestGateway_RoomsAreIsolated(t *testing.T) {
	req := require.New(t)
	g := newGateway(t, "unused", http.StatusOK)

	alice := g.dial(t, g.token(t, "a@x.com"), projectP1)
	bob := g.dial(t, g.token(t, "b@x.com"), projectP1)
	carol := g.dial(t, g.token(t, "c@x.com"), projectP2)

	send(t, alice, "only for P1")
	req.Equal("only for P1", read(t, bob).Message)

	// Then carol, in another project, never receives it
	expectSilence(t, carol)
}

func TestGateway_PlainRequestNeverJoins(t *testing.T) {
	req := require.New(t)
	g := newGateway(t, "unused", http.StatusOK)
	alice := g.dial(t, g.token(t, "a@x.com"), projectP1)

	// When a valid handshake is sent without the websocket upgrade
	res, err := http.Get(g.url(g.token(t, "b@x.com"), projectP1))
	req.NoError(err)
	_ = res.Body.Close()

	// Then the upgrade is refused and only alice is a member
	req.Equal(http.StatusBadRequest, res.StatusCode)
	req.Equal(1, g.orchestrator.Stats().Connections)

	// Then a message of alice reaches nobody
	send(t, alice, "alone")
	expectSilence(t, alice)
	req.Equal(1, g.orchestrator.Stats().Connections)
}

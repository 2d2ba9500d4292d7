package e2e

import (
	"bytes"
	gateway "collab-chat/infrastructure/websocket"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"golang.org/x/net/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type BaseGatewaySuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseGatewaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.GatewayAddr == "" {
		s.T().Skip("E2E_GATEWAY_ADDR not set")
	}
	s.client = &http.Client{Timeout: 10 * time.Second}
}

func (s *BaseGatewaySuite) step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Call sends a JSON request to the REST API and decodes the response into out.
func (s *BaseGatewaySuite) Call(method, path, token string, body, out any) int {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, "http://"+s.Config.GatewayAddr+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	s.T().Logf("HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		s.T().Logf("RESPONSE:\n%s", raw)
	}
	if out != nil && len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, out))
	}
	return resp.StatusCode
}

// Dial opens a chat connection on the project room.
func (s *BaseGatewaySuite) Dial(name, token, projectID string) *websocket.Conn {
	s.step(name)
	q := url.Values{}
	q.Set("token", token)
	q.Set("projectId", projectID)
	conn, err := websocket.Dial(
		fmt.Sprintf("ws://%s/ws?%s", s.Config.GatewayAddr, q.Encode()), "", "http://"+s.Config.GatewayAddr)
	s.Require().NoError(err)
	return conn
}

func (s *BaseGatewaySuite) Send(conn *websocket.Conn, message string) {
	frame, err := gateway.NewMessageFrame(message)
	s.Require().NoError(err)
	s.Require().NoError(websocket.JSON.Send(conn, frame))
}

// Receive waits for the next chat message on the connection.
func (s *BaseGatewaySuite) Receive(conn *websocket.Conn, timeout time.Duration) gateway.OutboundMessage {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(timeout)))
	var frame gateway.Frame
	s.Require().NoError(websocket.JSON.Receive(conn, &frame))
	msg, err := gateway.DecodeOutbound(frame)
	s.Require().NoError(err)
	return msg
}

// WithHealth provides a health client within a contextual test step
func (s *BaseGatewaySuite) WithHealth(name string, fn func(ctx context.Context, client healthpb.HealthClient)) {
	s.step(name)
	conn, err := grpc.NewClient(s.Config.HealthAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.HealthAddr)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	fn(ctx, healthpb.NewHealthClient(conn))
}

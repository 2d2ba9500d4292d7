package main

import (
	"bufio"
	gateway "collab-chat/infrastructure/websocket"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/net/websocket"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	Addr    string `envconfig:"CHAT_ADDR" default:"localhost:8080"`
	Token   string `envconfig:"CHAT_TOKEN" required:"true"`
	Project string `envconfig:"CHAT_PROJECT" required:"true"`
	// CHAT_COLOURS enables colorized senders
	Colours bool `envconfig:"CHAT_COLOURS" default:"true"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run connects to the gateway, prints every incoming message and sends stdin lines.
func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q := url.Values{}
	q.Set("projectId", config.Project)
	q.Set("token", config.Token)
	wsURL := fmt.Sprintf("ws://%s/ws?%s", config.Addr, q.Encode())
	conn, err := websocket.Dial(wsURL, "", "http://"+config.Addr)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.Addr, err)
	}
	defer func() { _ = conn.Close() }()

	renderer := Renderer{Colours: config.Colours}
	fmt.Printf(">>> Connected to %s, project %s (Ctrl+C to quit)\n", config.Addr, config.Project)

	readErr := make(chan error, 1)
	go func() {
		for {
			var frame gateway.Frame
			if err := websocket.JSON.Receive(conn, &frame); err != nil {
				readErr <- err
				return
			}
			msg, err := gateway.DecodeOutbound(frame)
			if err != nil {
				continue
			}
			fmt.Println(renderer.Render(msg))
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case err := <-readErr:
			return exitRuntime, fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			frame, err := gateway.NewMessageFrame(line)
			if err != nil {
				return exitRuntime, err
			}
			if err := websocket.JSON.Send(conn, frame); err != nil {
				return exitRuntime, fmt.Errorf("send failed: %w", err)
			}
		}
	}
}

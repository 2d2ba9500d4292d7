package main

import (
	"collab-chat/ai"
	"collab-chat/auth"
	"collab-chat/contract"
	grpcserver "collab-chat/infrastructure/grpc/server"
	"collab-chat/infrastructure/rest"
	"collab-chat/infrastructure/websocket"
	"collab-chat/internal"
	"collab-chat/repositories"
	"collab-chat/runtime"
	"collab-chat/runtime/workers"
	"collab-chat/services"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Every defer (database close, listeners) runs before main exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	config, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Accounts, projects and the handshake
	userRepository := repositories.NewUserRepository(db)
	projectRepository := repositories.NewProjectRepository(db)
	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration, repositories.NewRevokedTokenRepository(db))
	authService := services.NewAuthService(log, userRepository, tokens)
	projectService := services.NewProjectService(log, projectRepository, userRepository)
	authenticator := auth.NewAuthenticator(projectService, tokens, log)

	// 4. Supervision & Orchestration
	var generator contract.Generator = ai.Unavailable{}
	if config.AIAPIKey != "" {
		generator = ai.NewHTTPGateway(ai.Config{
			BaseURL: config.AIBaseURL,
			APIKey:  config.AIAPIKey,
			Model:   config.AIModel,
		})
	} else {
		log.Warn("AI_API_KEY is empty, every AI request will be answered with a failure notice")
	}
	orchestrator, err := runtime.NewOrchestrator(log, workers.NewSupervisor(log, config.RestartInterval),
		runtime.NewRegistry(), generator, config.Orchestrator())
	if err != nil {
		return fmt.Errorf("orchestrator setup failed: %w", err)
	}
	chatService := services.NewChatService(log, authenticator, orchestrator, config.ConnectionBufferSize)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestratorDone := make(chan struct{})
	go func() {
		defer close(orchestratorDone)
		_ = orchestrator.Start(ctx)
	}()

	// 6. Listeners
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	healthAddress := fmt.Sprintf("%s:%d", config.Host, config.HealthPort)
	healthListener, err := net.Listen("tcp", healthAddress)
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to listen on %s: %w", healthAddress, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", websocket.NewServer(log, chatService))
	rest.NewAPI(log, authService, projectService, tokens).Register(mux)
	httpServer := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	healthServer := grpcserver.NewHealthServer(log, healthListener)

	if config.LogLevel == "DEBUG" {
		debugServer := internal.StartDebugServer(log, db, config.DebugPort, func() any {
			return orchestrator.Monitoring().Refresh()
		})
		defer func() { _ = debugServer.Close() }()
	}

	// Use an error channel to capture Serve() issues
	errChan := make(chan error, 2)
	go func() {
		log.Info("Starting chat gateway", "address", address, "at", time.Now().UTC())
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()
	go func() {
		if err := healthServer.Serve(ctx); err != nil {
			errChan <- err
		}
	}()
	healthServer.SetServing(true)

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err = <-errChan:
		log.Error("Server failure, shutting down", "error", err)
	}

	// 8. Final Cleanup
	healthServer.SetServing(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn("HTTP shutdown incomplete", "error", shutdownErr)
	}
	orchestrator.Stop()
	stop()
	<-orchestratorDone
	log.Info("Program stopped cleanly")

	return err
}

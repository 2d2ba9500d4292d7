package server

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GatewayService is the health service name reported for the chat gateway.
const GatewayService = "collab-chat.Gateway"

// HealthServer exposes the standard gRPC health protocol for the gateway.
// It reports SERVING while the gateway runs and NOT_SERVING once shutdown starts.
type HealthServer struct {
	log      *slog.Logger
	listener net.Listener
	server   *grpc.Server
	health   *health.Server
}

func NewHealthServer(log *slog.Logger, listener net.Listener) *HealthServer {
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(GatewayService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{log: log, listener: listener, server: s, health: hs}
}

func (s *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(GatewayService, status)
	s.log.Debug("Health status changed", "status", status.String())
}

// Serve blocks until ctx is canceled, then flips every service to NOT_SERVING and stops.
func (s *HealthServer) Serve(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		s.log.Info("Starting gRPC health server", "address", s.listener.Addr().String())
		serveErr <- s.server.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.server.GracefulStop()
		err := <-serveErr
		if err == nil || goerrors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC health: %w", err)
	case err := <-serveErr:
		if err == nil || goerrors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC health: %w", err)
	}
}

package runtime

import (
	"collab-chat/contract"
	"collab-chat/domain"
	"context"
	"log/slog"
)

var _ contract.Broadcaster = (*RoomManager)(nil)

// RoomManager mutates membership through join and leave and turns every broadcast
// into a Delivery carrying the membership snapshot of the moment it was issued.
type RoomManager struct {
	log        *slog.Logger
	registry   contract.IRegistry
	deliveries chan<- contract.Delivery
}

func NewRoomManager(log *slog.Logger, registry contract.IRegistry, deliveries chan<- contract.Delivery) *RoomManager {
	return &RoomManager{log: log, registry: registry, deliveries: deliveries}
}

// Join binds the connection to its handshake room for its whole lifetime.
func (m *RoomManager) Join(conn *Connection) error {
	if err := m.registry.Join(conn.ID, conn.Room, conn); err != nil {
		return err
	}
	m.log.Debug("Connection joined room", "connection", conn.ID, "room", conn.Room, "user", conn.Identity.Email)
	return nil
}

// Leave is idempotent: a connection already removed is ignored.
func (m *RoomManager) Leave(connID contract.ConnectionID) {
	if room, ok := m.registry.Leave(connID); ok {
		m.log.Debug("Connection left room", "connection", connID, "room", room)
	}
}

// Broadcast snapshots the room membership now and queues the delivery for the fanout worker.
// An empty or unknown room is a valid target.
func (m *RoomManager) Broadcast(ctx context.Context, env domain.Envelope, exclude ...contract.ConnectionID) error {
	delivery := contract.Delivery{
		Envelope: env,
		Members:  m.registry.Snapshot(env.RoomID(), exclude...),
	}
	select {
	case m.deliveries <- delivery:
		return nil
	case <-ctx.Done():
		m.log.Warn("Broadcast dropped", "room", env.RoomID(), "sender", env.Sender.Tag(), "error", ctx.Err())
		return ctx.Err()
	}
}

func (m *RoomManager) Stats() contract.RegistryStats {
	return m.registry.Stats()
}

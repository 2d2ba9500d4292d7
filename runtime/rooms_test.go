package runtime

import (
	"collab-chat/contract"
	"collab-chat/domain"
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestRoomManager_BroadcastSnapshot(t *testing.T) {
	req := require.New(t)
	deliveries := make(chan contract.Delivery, 2)
	manager := NewRoomManager(logs.GetLoggerFromLevel(slog.LevelDebug), NewRegistry(), deliveries)

	alice := NewConnection(domain.Identity{Email: "a@x.com"}, roomA, 1)
	bob := NewConnection(domain.Identity{Email: "b@x.com"}, roomA, 1)
	req.NoError(manager.Join(alice))
	req.NoError(manager.Join(bob))
	req.NoError(manager.Join(alice))

	// When alice broadcasts, excluding herself
	env := domain.NewEnvelope(roomA, domain.Human{Identity: alice.Identity}, "hello")
	req.NoError(manager.Broadcast(context.Background(), env, alice.ID))

	// Given bob leaves after the broadcast was issued
	manager.Leave(bob.ID)
	manager.Leave(bob.ID)

	// Then the delivery still targets the membership of the broadcast time
	delivery := <-deliveries
	req.Equal(env, delivery.Envelope)
	req.Equal([]contract.ConnectionID{bob.ID}, memberIDs(delivery.Members))

	// Then a broadcast to an empty room is a valid no-op target
	req.NoError(manager.Broadcast(context.Background(), domain.NewEnvelope(roomB, domain.Assistant{}, "x")))
	req.Empty((<-deliveries).Members)
}

func TestRoomManager_BroadcastCanceled(t *testing.T) {
	manager := NewRoomManager(logs.GetLoggerFromLevel(slog.LevelDebug), NewRegistry(), make(chan contract.Delivery))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := manager.Broadcast(ctx, domain.NewEnvelope(roomA, domain.Assistant{}, "x"))
	require.ErrorIs(t, err, context.Canceled)
}

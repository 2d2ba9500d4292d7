package runtime

import (
	"collab-chat/contract"
	"collab-chat/domain"
	"collab-chat/errors"
	"collab-chat/mocks"
	"fmt"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	roomA = domain.ProjectID("507f1f77bcf86cd799439011")
	roomB = domain.ProjectID("507f191e810c19729de860ea")
)

func memberIDs(members []contract.Member) []contract.ConnectionID {
	return lo.Map(members, func(m contract.Member, _ int) contract.ConnectionID { return m.ConnectionID })
}

func TestRegistry_JoinLeaveSnapshot(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockEventSink(ctrl)
	registry := NewRegistry()

	// Given two members in room A and one in room B
	req.NoError(registry.Join("c1", roomA, sink))
	req.NoError(registry.Join("c2", roomA, sink))
	req.NoError(registry.Join("c3", roomB, sink))

	// Then snapshots never mix rooms
	req.ElementsMatch([]contract.ConnectionID{"c1", "c2"}, memberIDs(registry.Snapshot(roomA)))
	req.ElementsMatch([]contract.ConnectionID{"c3"}, memberIDs(registry.Snapshot(roomB)))

	// Then exclusion removes the sender only
	req.ElementsMatch([]contract.ConnectionID{"c2"}, memberIDs(registry.Snapshot(roomA, "c1")))

	// When c1 leaves
	left, ok := registry.Leave("c1")
	req.True(ok)
	req.Equal(roomA, left)
	req.ElementsMatch([]contract.ConnectionID{"c2"}, memberIDs(registry.Snapshot(roomA)))

	// Then leaving twice is a no-op
	_, ok = registry.Leave("c1")
	req.False(ok)

	// Then the last leave drops the room
	registry.Leave("c2")
	req.Empty(registry.Snapshot(roomA))
	req.Equal(contract.RegistryStats{Rooms: 1, Connections: 1}, registry.Stats())
}

func TestRegistry_JoinIsOncePerConnection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	req.NoError(registry.Join("c1", roomA, nil))

	// Then joining the same room again changes nothing
	req.NoError(registry.Join("c1", roomA, nil))
	req.Equal(contract.RegistryStats{Rooms: 1, Connections: 1}, registry.Stats())

	// Then the room of a connection cannot change
	req.ErrorIs(registry.Join("c1", roomB, nil), errors.ErrAlreadyJoined)
	room, ok := registry.RoomOf("c1")
	req.True(ok)
	req.Equal(roomA, room)
	req.Len(registry.Snapshot(roomA), 1)
}

func TestRegistry_UnknownRoomSnapshot(t *testing.T) {
	require.Empty(t, NewRegistry().Snapshot(roomA))
}

func TestRegistry_Concurrent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := contract.ConnectionID(fmt.Sprintf("c%d", i))
		go func() {
			defer wg.Done()
			_ = registry.Join(id, roomA, nil)
			registry.Leave(id)
		}()
		go func() {
			defer wg.Done()
			_ = registry.Snapshot(roomA)
		}()
	}
	wg.Wait()

	req.Equal(contract.RegistryStats{}, registry.Stats())
}

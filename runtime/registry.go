package runtime

import (
	"collab-chat/contract"
	"collab-chat/domain"
	"collab-chat/errors"
	"sync"

	"github.com/samber/lo"
)

type Set map[contract.ConnectionID]contract.EventSink

var _ contract.IRegistry = (*Registry)(nil)

// Registry is the single owner of room membership.
// A connection belongs to at most one room and never moves to another one.
type Registry struct {
	mu          sync.RWMutex
	connections map[contract.ConnectionID]domain.ProjectID // map connection -> room
	roomMembers map[domain.ProjectID]Set                   // map room -> members
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[contract.ConnectionID]domain.ProjectID),
		roomMembers: make(map[domain.ProjectID]Set),
	}
}

// Join adds the connection to the member set of roomID.
// The room is created on the fly when it has no member yet.
// Joining the same room again is a no-op, joining another one fails with ErrAlreadyJoined.
func (r *Registry) Join(connID contract.ConnectionID, roomID domain.ProjectID, sink contract.EventSink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.connections[connID]; ok {
		if current == roomID {
			return nil
		}
		return errors.ErrAlreadyJoined
	}
	r.connections[connID] = roomID

	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(Set)
	}
	r.roomMembers[roomID][connID] = sink
	return nil
}

// Leave removes the connection from whatever room it was in.
// Calling it again for the same connection is a no-op.
func (r *Registry) Leave(connID contract.ConnectionID) (domain.ProjectID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok := r.connections[connID]
	if !ok {
		return "", false
	}
	delete(r.connections, connID)

	if members, ok := r.roomMembers[roomID]; ok {
		delete(members, connID)

		// If no one is left in the room, remove the room entry entirely
		if len(members) == 0 {
			delete(r.roomMembers, roomID)
		}
	}
	return roomID, true
}

// Snapshot copies the current members of roomID minus the excluded connections.
// An unknown room yields an empty snapshot.
func (r *Registry) Snapshot(roomID domain.ProjectID, exclude ...contract.ConnectionID) []contract.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	snapshot := make([]contract.Member, 0, len(members))
	for connID, sink := range members {
		if lo.Contains(exclude, connID) {
			continue
		}
		snapshot = append(snapshot, contract.Member{ConnectionID: connID, Sink: sink})
	}
	return snapshot
}

func (r *Registry) RoomOf(connID contract.ConnectionID) (domain.ProjectID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.connections[connID]
	return roomID, ok
}

func (r *Registry) Stats() contract.RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return contract.RegistryStats{
		Rooms:       len(r.roomMembers),
		Connections: len(r.connections),
	}
}

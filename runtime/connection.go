package runtime

import (
	"collab-chat/contract"
	"collab-chat/domain"
	"collab-chat/errors"
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var _ contract.EventSink = (*Connection)(nil)

// Connection is one live client session, authenticated once and bound to one room.
// Deliveries are queued in a bounded outbox drained by the transport writer.
type Connection struct {
	ID       contract.ConnectionID
	Identity domain.Identity
	Room     domain.ProjectID
	outbox   chan domain.Envelope
	closed   atomic.Bool
	done     chan struct{}
	once     sync.Once
}

func NewConnection(identity domain.Identity, room domain.ProjectID, bufferSize int) *Connection {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Connection{
		ID:       contract.ConnectionID(uuid.NewString()),
		Identity: identity,
		Room:     room,
		outbox:   make(chan domain.Envelope, bufferSize),
		done:     make(chan struct{}),
	}
}

// Consume queues the envelope for the writer without ever waiting.
// A reader that stopped draining its outbox misses the envelope with ErrOutboxFull,
// the fanout moves on to the next member.
func (c *Connection) Consume(ctx context.Context, e domain.Envelope) error {
	if c.closed.Load() {
		return errors.ErrConnectionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.done:
		return errors.ErrConnectionClosed
	case c.outbox <- e:
		return nil
	default:
		return errors.ErrOutboxFull
	}
}

// Outbox is read by the transport writer until Done is closed.
func (c *Connection) Outbox() <-chan domain.Envelope {
	return c.outbox
}

func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) Alive() bool {
	return !c.closed.Load()
}

// Close marks the connection as gone. It is safe to call several times.
func (c *Connection) Close() {
	c.once.Do(func() {
		c.closed.Store(true)
		close(c.done)
	})
}

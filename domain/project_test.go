package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProjectID_Valid(t *testing.T) {
	tests := []struct {
		name  string
		id    ProjectID
		valid bool
	}{
		{"24 hex chars", "65a1f0c2b3d4e5f60718293a", true},
		{"uppercase hex", "65A1F0C2B3D4E5F60718293A", true},
		{"not an id", "not-an-id", false},
		{"empty", "", false},
		{"23 chars", "65a1f0c2b3d4e5f60718293", false},
		{"24 chars not hex", ProjectID(strings.Repeat("z", 24)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.valid, tt.id.Valid())
		})
	}
}

func TestNewProjectID_IsValidAndUnique(t *testing.T) {
	req := require.New(t)
	seen := make(map[ProjectID]struct{})
	for i := 0; i < 1000; i++ {
		id := NewProjectID()
		req.True(id.Valid())
		_, dup := seen[id]
		req.False(dup)
		seen[id] = struct{}{}
	}
}

func TestEnvelope_SenderTags(t *testing.T) {
	req := require.New(t)
	room := NewProjectID()

	human := NewEnvelope(room, Human{Identity: Identity{Email: "a@x.com"}}, "hello")
	req.Equal("a@x.com", human.Sender.Tag())
	req.False(human.IsAssistant())

	assistant := NewEnvelope(room, Assistant{}, "4")
	req.Equal("AI", assistant.Sender.Tag())
	req.True(assistant.IsAssistant())

	req.Equal("system", NewEnvelope(room, System{}, "oops").Sender.Tag())
	req.Equal(room, assistant.RoomID())
}

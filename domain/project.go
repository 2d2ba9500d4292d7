// Package domain contains core concepts of the collaboration chat.
// This file defines projects and their identifiers.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"
	"time"
)

// ProjectID identifies a project and, at the gateway level, the room of its collaborators.
// A well-formed id is 24 lowercase or uppercase hexadecimal characters.
type ProjectID string

const projectIDLength = 24

var projectIDCounter atomic.Uint32

// NewProjectID builds a 12 bytes id: 4 bytes of unix seconds, 5 random bytes and a 3 bytes counter.
func NewProjectID() ProjectID {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(time.Now().Unix()))
	_, _ = rand.Read(b[4:9])
	c := projectIDCounter.Add(1)
	b[9], b[10], b[11] = byte(c>>16), byte(c>>8), byte(c)
	return ProjectID(hex.EncodeToString(b[:]))
}

// Valid reports whether the id is syntactically well formed.
func (id ProjectID) Valid() bool {
	if len(id) != projectIDLength {
		return false
	}
	_, err := hex.DecodeString(string(id))
	return err == nil
}

func (id ProjectID) String() string {
	return string(id)
}

type Project struct {
	ID        ProjectID
	Name      string
	Members   []string // user ids
	CreatedAt time.Time
}

// HasMember reports whether the user id belongs to the project.
func (p Project) HasMember(userID string) bool {
	for _, m := range p.Members {
		if m == userID {
			return true
		}
	}
	return false
}

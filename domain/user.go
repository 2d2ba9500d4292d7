package domain

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is the caller principal decoded from a verified credential.
// It is never mutated after the handshake.
type Identity struct {
	UserID  string
	Email   string
	TokenID string
}

func (i Identity) String() string {
	return i.Email
}

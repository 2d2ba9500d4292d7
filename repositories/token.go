package repositories

import (
	"collab-chat/contract"
	"context"
	goerrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const revokedPrefix = "revoked:"

// RevokedTokenRepository keeps logged out token ids until they expire on their own.
// Entries carry a Badger TTL so they vanish with the token.
type RevokedTokenRepository struct {
	db  *badger.DB
	now func() time.Time
}

var _ contract.TokenRevoker = RevokedTokenRepository{}

func NewRevokedTokenRepository(db *badger.DB) RevokedTokenRepository {
	return RevokedTokenRepository{db: db, now: time.Now}
}

func (r RevokedTokenRepository) Revoke(_ context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(revokedPrefix+tokenID), []byte{1}).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

func (r RevokedTokenRepository) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(revokedPrefix + tokenID))
		return err
	})
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

package auth

import (
	"collab-chat/contract"
	"collab-chat/domain"
	"collab-chat/errors"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"strings"
)

// HandshakeContext is the resolved {identity, room} pair admitting a connection.
type HandshakeContext struct {
	Identity domain.Identity
	Room     domain.ProjectID
}

// Authenticator runs the connection handshake.
//
// Steps short-circuit in this order: room id syntax, project resolution,
// credential presence and verification. The project is resolved before the
// credential is verified, so an unauthenticated caller can learn whether a
// project id exists. The caller's membership in the project is not checked.
// Project ids are case insensitive, the room is always the lowercase form.
type Authenticator struct {
	resolver contract.ProjectResolver
	verifier contract.IdentityVerifier
	log      *slog.Logger
}

func NewAuthenticator(resolver contract.ProjectResolver,
	verifier contract.IdentityVerifier, log *slog.Logger) *Authenticator {
	return &Authenticator{resolver: resolver, verifier: verifier, log: log}
}

// Authenticate produces a handshake context or one of ErrInvalidRoomID,
// ErrRoomNotFound, ErrMissingCredential or ErrInvalidCredential.
func (a *Authenticator) Authenticate(ctx context.Context, credential, projectID string) (HandshakeContext, error) {
	room := domain.ProjectID(strings.ToLower(projectID))
	if !room.Valid() {
		return HandshakeContext{}, errors.ErrInvalidRoomID
	}

	if _, err := a.resolver.FindProject(ctx, room); err != nil {
		if goerrors.Is(err, errors.ErrProjectNotFound) {
			return HandshakeContext{}, errors.ErrRoomNotFound
		}
		return HandshakeContext{}, fmt.Errorf("resolve project %s: %w", room, err)
	}

	if credential == "" {
		return HandshakeContext{}, errors.ErrMissingCredential
	}

	identity, err := a.verifier.Verify(ctx, credential)
	if err != nil {
		if goerrors.Is(err, errors.ErrMissingCredential) {
			return HandshakeContext{}, err
		}
		a.log.Debug("Credential verification failed", "room", room, "error", err)
		if goerrors.Is(err, errors.ErrInvalidCredential) {
			return HandshakeContext{}, err
		}
		return HandshakeContext{}, fmt.Errorf("%w: %v", errors.ErrInvalidCredential, err)
	}

	return HandshakeContext{Identity: identity, Room: room}, nil
}

package auth

import (
	"collab-chat/contract"
	"collab-chat/domain"
	"collab-chat/errors"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "collab-chat"

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 tokens with a shared secret.
// It is the Identity Verifier of the gateway handshake.
type TokenManager struct {
	secret   []byte
	duration time.Duration
	revoker  contract.TokenRevoker
	now      func() time.Time
}

var _ contract.IdentityVerifier = (*TokenManager)(nil)

// NewTokenManager builds a manager. revoker may be nil, logout is then a no-op.
func NewTokenManager(secret string, duration time.Duration, revoker contract.TokenRevoker) *TokenManager {
	return &TokenManager{
		secret:   []byte(secret),
		duration: duration,
		revoker:  revoker,
		now:      time.Now,
	}
}

// GenerateToken creates a signed JWT for a specific user.
func (m *TokenManager) GenerateToken(user domain.User) (string, error) {
	now := m.now()
	claims := &CustomClaims{
		Email:  user.Email,
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	return signed, nil
}

// Verify parses the credential, checks its signature, expiry and revocation,
// and returns the identity it carries.
func (m *TokenManager) Verify(ctx context.Context, credential string) (domain.Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.Identity{}, errors.ErrMissingCredential
	}

	claims, err := m.parse(credential)
	if err != nil {
		return domain.Identity{}, err
	}

	if m.revoker != nil && claims.ID != "" {
		revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("revocation lookup: %w", err)
		}
		if revoked {
			return domain.Identity{}, fmt.Errorf("%w: token revoked", errors.ErrInvalidCredential)
		}
	}

	return domain.Identity{
		UserID:  claims.UserID,
		Email:   claims.Email,
		TokenID: claims.ID,
	}, nil
}

// Revoke invalidates the credential until its natural expiry.
func (m *TokenManager) Revoke(ctx context.Context, credential string) error {
	claims, err := m.parse(credential)
	if err != nil {
		return err
	}
	if m.revoker == nil || claims.ID == "" {
		return nil
	}
	return m.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (m *TokenManager) parse(credential string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(credential, &CustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.Email == "" {
		return nil, errors.ErrInvalidCredential
	}
	return claims, nil
}

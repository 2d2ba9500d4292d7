package auth

import (
	"collab-chat/contract"
	"collab-chat/domain"
	"collab-chat/errors"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const identityKey contextKey = "identity"

const tokenCookieName = "token"

// CredentialFromRequest extracts the bearer credential of a handshake or API request.
// Lookup order: `token` then `auth` query parameters, the Authorization header
// fragment after the scheme, then the token cookie.
func CredentialFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	query := r.URL.Query()
	for _, key := range []string{"token", "auth"} {
		if v := strings.TrimSpace(query.Get(key)); v != "" {
			return v
		}
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if _, fragment, ok := strings.Cut(header, " "); ok {
			return strings.TrimSpace(fragment)
		}
	}
	if cookie, err := r.Cookie(tokenCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// RequireIdentity rejects requests without a valid credential and injects the
// caller identity into the request context for downstream handlers.
func RequireIdentity(verifier contract.IdentityVerifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.Verify(r.Context(), CredentialFromRequest(r))
			if err != nil {
				log.Debug("Unauthenticated request", "path", r.URL.Path, "error", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(errors.HTTPStatus(err))
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":    errors.Code(err),
					"message": "invalid or expired token",
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(domain.Identity)
	return identity, ok
}

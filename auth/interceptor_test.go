package auth

import (
	"collab-chat/domain"
	"collab-chat/errors"
	"collab-chat/mocks"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCredentialFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header string
		cookie string
		want   string
	}{
		{"token query", "/ws?token=abc", "", "", "abc"},
		{"auth query", "/ws?auth=abc", "", "", "abc"},
		{"token query wins over auth", "/ws?token=one&auth=two", "", "", "one"},
		{"bearer header", "/ws", "Bearer abc", "", "abc"},
		{"any scheme", "/ws", "Token abc", "", "abc"},
		{"header without scheme", "/ws", "abc", "", ""},
		{"query wins over header", "/ws?token=one", "Bearer two", "", "one"},
		{"cookie", "/ws", "", "abc", "abc"},
		{"nothing", "/ws", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: tokenCookieName, Value: tt.cookie})
			}
			require.Equal(t, tt.want, CredentialFromRequest(r))
		})
	}
}

func TestRequireIdentity(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	manager := NewTokenManager("secret", time.Hour, nil)
	token, err := manager.GenerateToken(alice)
	req.NoError(err)

	var seen domain.Identity
	handler := RequireIdentity(manager, log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	// Given a valid bearer token
	r := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	// Then the identity reaches the handler
	req.Equal(http.StatusNoContent, rec.Code)
	req.Equal("a@x.com", seen.Email)

	// Given no token
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/profile", nil))

	// Then the request is rejected with a JSON error
	req.Equal(http.StatusUnauthorized, rec.Code)
	var body map[string]string
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	req.Equal("MISSING_CREDENTIAL", body["code"])
}

func TestAuthenticator(t *testing.T) {
	const validID = "507f1f77bcf86cd799439011"
	identity := domain.Identity{UserID: "user-1", Email: "a@x.com"}

	tests := []struct {
		name       string
		projectID  string
		credential string
		setup      func(r *mocks.MockProjectResolver, v *mocks.MockIdentityVerifier)
		wantErr    error
	}{
		{
			name:       "malformed project id short-circuits",
			projectID:  "not-an-id",
			credential: "token",
			setup:      func(r *mocks.MockProjectResolver, v *mocks.MockIdentityVerifier) {},
			wantErr:    errors.ErrInvalidRoomID,
		},
		{
			name:       "empty project id",
			projectID:  "",
			credential: "token",
			setup:      func(r *mocks.MockProjectResolver, v *mocks.MockIdentityVerifier) {},
			wantErr:    errors.ErrInvalidRoomID,
		},
		{
			name:       "unknown project is reported before the credential",
			projectID:  validID,
			credential: "",
			setup: func(r *mocks.MockProjectResolver, v *mocks.MockIdentityVerifier) {
				r.EXPECT().FindProject(gomock.Any(), domain.ProjectID(validID)).
					Return(domain.Project{}, errors.ErrProjectNotFound)
			},
			wantErr: errors.ErrRoomNotFound,
		},
		{
			name:       "missing credential",
			projectID:  validID,
			credential: "",
			setup: func(r *mocks.MockProjectResolver, v *mocks.MockIdentityVerifier) {
				r.EXPECT().FindProject(gomock.Any(), domain.ProjectID(validID)).
					Return(domain.Project{ID: validID}, nil)
			},
			wantErr: errors.ErrMissingCredential,
		},
		{
			name:       "invalid credential",
			projectID:  validID,
			credential: "bad",
			setup: func(r *mocks.MockProjectResolver, v *mocks.MockIdentityVerifier) {
				r.EXPECT().FindProject(gomock.Any(), domain.ProjectID(validID)).
					Return(domain.Project{ID: validID}, nil)
				v.EXPECT().Verify(gomock.Any(), "bad").
					Return(domain.Identity{}, errors.ErrInvalidCredential)
			},
			wantErr: errors.ErrInvalidCredential,
		},
		{
			name:       "verifier failure of another kind is still an invalid credential",
			projectID:  validID,
			credential: "tok",
			setup: func(r *mocks.MockProjectResolver, v *mocks.MockIdentityVerifier) {
				r.EXPECT().FindProject(gomock.Any(), domain.ProjectID(validID)).
					Return(domain.Project{ID: validID}, nil)
				v.EXPECT().Verify(gomock.Any(), "tok").
					Return(domain.Identity{}, context.DeadlineExceeded)
			},
			wantErr: errors.ErrInvalidCredential,
		},
		{
			name:       "accepted",
			projectID:  validID,
			credential: "tok",
			setup: func(r *mocks.MockProjectResolver, v *mocks.MockIdentityVerifier) {
				r.EXPECT().FindProject(gomock.Any(), domain.ProjectID(validID)).
					Return(domain.Project{ID: validID}, nil)
				v.EXPECT().Verify(gomock.Any(), "tok").Return(identity, nil)
			},
		},
		{
			name:       "uppercase project id resolves to the stored lowercase room",
			projectID:  "507F1F77BCF86CD799439011",
			credential: "tok",
			setup: func(r *mocks.MockProjectResolver, v *mocks.MockIdentityVerifier) {
				r.EXPECT().FindProject(gomock.Any(), domain.ProjectID(validID)).
					Return(domain.Project{ID: validID}, nil)
				v.EXPECT().Verify(gomock.Any(), "tok").Return(identity, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			ctrl := gomock.NewController(t)
			resolver := mocks.NewMockProjectResolver(ctrl)
			verifier := mocks.NewMockIdentityVerifier(ctrl)
			tt.setup(resolver, verifier)
			authenticator := NewAuthenticator(resolver, verifier, logs.GetLoggerFromLevel(slog.LevelDebug))

			hc, err := authenticator.Authenticate(context.Background(), tt.credential, tt.projectID)
			if tt.wantErr != nil {
				req.ErrorIs(err, tt.wantErr)
				return
			}
			req.NoError(err)
			req.Equal(identity, hc.Identity)
			req.Equal(domain.ProjectID(validID), hc.Room)
		})
	}
}

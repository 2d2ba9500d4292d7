// Package rest serves the account and project HTTP API next to the websocket gateway.
package rest

import (
	"collab-chat/auth"
	"collab-chat/contract"
	"collab-chat/domain"
	"collab-chat/errors"
	"collab-chat/services"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"
)

const maxBodyBytes = 1 << 20

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type projectResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
}

type projectDetailsResponse struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Users []userResponse `json:"users"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type API struct {
	log      *slog.Logger
	users    services.IAuthService
	projects services.IProjectService
	verifier contract.IdentityVerifier
}

func NewAPI(log *slog.Logger, users services.IAuthService, projects services.IProjectService,
	verifier contract.IdentityVerifier) *API {
	return &API{log: log, users: users, projects: projects, verifier: verifier}
}

// Register mounts the /users and /project routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	protected := auth.RequireIdentity(a.verifier, a.log)

	mux.HandleFunc("POST /users/register", a.register)
	mux.HandleFunc("POST /users/login", a.login)
	mux.Handle("GET /users/profile", protected(http.HandlerFunc(a.profile)))
	mux.Handle("GET /users/logout", protected(http.HandlerFunc(a.logout)))
	mux.Handle("GET /users/all", protected(http.HandlerFunc(a.allUsers)))

	mux.Handle("POST /project/create", protected(http.HandlerFunc(a.createProject)))
	mux.Handle("GET /project/all", protected(http.HandlerFunc(a.allProjects)))
	mux.Handle("PUT /project/add-user", protected(http.HandlerFunc(a.addUsers)))
	mux.Handle("GET /project/get-project/{projectId}", protected(http.HandlerFunc(a.getProject)))
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req auth.CredentialsRequest
	if !a.decode(w, r, &req) {
		return
	}
	session, err := a.users.Register(req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	setTokenCookie(w, session.Token)
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req auth.CredentialsRequest
	if !a.decode(w, r, &req) {
		return
	}
	session, err := a.users.Login(req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	setTokenCookie(w, session.Token)
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (a *API) profile(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	user, err := a.users.Profile(identity)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]userResponse{"user": toUserResponse(user)})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.users.Logout(r.Context(), auth.CredentialFromRequest(r)); err != nil {
		a.fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "token", Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (a *API) allUsers(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	users, err := a.users.ListUsers(identity)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]userResponse{"users": lo.Map(users, toUserResponseAt)})
}

func (a *API) createProject(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	var req services.CreateProjectRequest
	if !a.decode(w, r, &req) {
		return
	}
	project, err := a.projects.CreateProject(identity.UserID, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(project))
}

func (a *API) allProjects(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	projects, err := a.projects.ListProjects(identity.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]projectResponse{
		"projects": lo.Map(projects, func(p domain.Project, _ int) projectResponse { return toProjectResponse(p) }),
	})
}

func (a *API) addUsers(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	var req services.AddUsersRequest
	if !a.decode(w, r, &req) {
		return
	}
	project, err := a.projects.AddUsers(identity.UserID, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]projectResponse{"project": toProjectResponse(project)})
}

func (a *API) getProject(w http.ResponseWriter, r *http.Request) {
	details, err := a.projects.GetProject(r.PathValue("projectId"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]projectDetailsResponse{"project": {
		ID:    details.Project.ID.String(),
		Name:  details.Project.Name,
		Users: lo.Map(details.Users, toUserResponseAt),
	}})
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		a.fail(w, r, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err))
		return false
	}
	return true
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		a.log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "internal error"
	} else {
		a.log.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Code: errors.Code(err), Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{Name: "token", Value: token, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

func toSessionResponse(s services.Session) sessionResponse {
	return sessionResponse{User: toUserResponse(s.User), Token: s.Token}
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toUserResponseAt(u domain.User, _ int) userResponse {
	return toUserResponse(u)
}

func toProjectResponse(p domain.Project) projectResponse {
	return projectResponse{ID: p.ID.String(), Name: p.Name, Members: p.Members, CreatedAt: p.CreatedAt}
}

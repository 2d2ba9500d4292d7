package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Handshake errors. All of them are fatal to the connection attempt.
var (
	ErrInvalidRoomID     = fmt.Errorf("invalid room id")
	ErrRoomNotFound      = fmt.Errorf("room not found")
	ErrMissingCredential = fmt.Errorf("missing credential")
	ErrInvalidCredential = fmt.Errorf("invalid credential")
)

// Post-handshake errors. They never tear down a connection or a room.
var (
	ErrGeneration       = fmt.Errorf("generation failed")
	ErrAssistantBusy    = fmt.Errorf("assistant queue is full")
	ErrInvalidPayload   = fmt.Errorf("invalid payload")
	ErrAlreadyJoined    = fmt.Errorf("connection already joined a room")
	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrOutboxFull       = fmt.Errorf("connection outbox is full")
)

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrInvalidEmail       = fmt.Errorf("invalid email")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrProjectNotFound    = fmt.Errorf("project not found")
	ErrProjectExists      = fmt.Errorf("project already exists")
	ErrNotProjectMember   = fmt.Errorf("user does not belong to this project")
	ErrInvalidRequest     = fmt.Errorf("invalid request")
)

// Code returns the wire code sent back to a client whose handshake or request failed.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRoomID):
		return "INVALID_ROOM_ID"
	case errors.Is(err, ErrRoomNotFound):
		return "ROOM_NOT_FOUND"
	case errors.Is(err, ErrMissingCredential):
		return "MISSING_CREDENTIAL"
	case errors.Is(err, ErrInvalidCredential), errors.Is(err, ErrInvalidCredentials):
		return "INVALID_CREDENTIAL"
	case errors.Is(err, ErrUserAlreadyExists), errors.Is(err, ErrProjectExists):
		return "ALREADY_EXISTS"
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrProjectNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrNotProjectMember):
		return "FORBIDDEN"
	case errors.Is(err, ErrInvalidPassword), errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrInvalidPayload):
		return "INVALID_ARGUMENT"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus maps an error of the taxonomy to the status answered by the HTTP layer.
func HTTPStatus(err error) int {
	switch Code(err) {
	case "INVALID_ROOM_ID", "INVALID_ARGUMENT":
		return http.StatusBadRequest
	case "ROOM_NOT_FOUND", "NOT_FOUND":
		return http.StatusNotFound
	case "MISSING_CREDENTIAL", "INVALID_CREDENTIAL":
		return http.StatusUnauthorized
	case "ALREADY_EXISTS":
		return http.StatusConflict
	case "FORBIDDEN":
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

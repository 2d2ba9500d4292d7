package services

import (
	"collab-chat/auth"
	"collab-chat/domain"
	"collab-chat/errors"
	"collab-chat/repositories"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
)

type IAuthService interface {
	Register(req auth.CredentialsRequest) (Session, error)
	Login(req auth.CredentialsRequest) (Session, error)
	Logout(ctx context.Context, credential string) error
	Profile(identity domain.Identity) (domain.User, error)
	ListUsers(identity domain.Identity) ([]domain.User, error)
}

// Session is the answer of register and login: the account and its bearer token.
type Session struct {
	User  domain.User
	Token string
}

type AuthService struct {
	log            *slog.Logger
	userRepository repositories.IUserRepository
	tokens         *auth.TokenManager
}

func NewAuthService(log *slog.Logger, repo repositories.IUserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{log: log, userRepository: repo, tokens: tokens}
}

func (s *AuthService) Register(req auth.CredentialsRequest) (Session, error) {
	// Validation runs before any expensive cryptographic operation
	req, err := auth.ValidateCredentials(req)
	if err != nil {
		return Session{}, err
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(req.Email, hashedPassword)
	if err != nil {
		return Session{}, err // ErrUserAlreadyExists if the email is taken
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return Session{}, err
	}
	s.log.Info("User registered", "user", user.ID)
	return Session{User: user, Token: token}, nil
}

func (s *AuthService) Login(req auth.CredentialsRequest) (Session, error) {
	email := auth.NormalizeEmail(req.Email)
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		if !goerrors.Is(err, errors.ErrUserNotFound) {
			s.log.Error("User lookup failed", "error", err)
		}
		// Same error for unknown email and wrong password
		return Session{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return Session{}, errors.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}

// Logout revokes the presented token until its expiry.
func (s *AuthService) Logout(ctx context.Context, credential string) error {
	return s.tokens.Revoke(ctx, credential)
}

func (s *AuthService) Profile(identity domain.Identity) (domain.User, error) {
	return s.userRepository.GetUserByID(identity.UserID)
}

// ListUsers returns every account except the caller.
func (s *AuthService) ListUsers(identity domain.Identity) ([]domain.User, error) {
	users, err := s.userRepository.ListUsers()
	if err != nil {
		return nil, err
	}
	return lo.Filter(users, func(u domain.User, _ int) bool { return u.ID != identity.UserID }), nil
}

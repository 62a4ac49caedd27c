package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// genericLoginError is returned for every login failure. It deliberately
// never reveals whether the email or the password was wrong.
const genericLoginError = "Invalid email or password."

// AuthService coordinates login and logout flows.
type AuthService struct {
	users    repository.UserRepository
	sessions *auth.SessionManager
}

// NewAuthService builds the service.
func NewAuthService(users repository.UserRepository, sessions *auth.SessionManager) *AuthService {
	return &AuthService{users: users, sessions: sessions}
}

// Login validates credentials and establishes a session. The returned
// cookie value identifies the new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (auth.Principal, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return auth.Principal{}, "", apperrors.NewUnauthorized(genericLoginError)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return auth.Principal{}, "", apperrors.NewUnauthorized(genericLoginError)
	}

	principal := auth.Principal{ID: user.ID, Name: user.Name, Role: user.Role}
	cookie, err := s.sessions.Create(ctx, principal)
	if err != nil {
		return auth.Principal{}, "", err
	}
	return principal, cookie, nil
}

// Logout clears the session unconditionally.
func (s *AuthService) Logout(ctx context.Context, cookie string) error {
	return s.sessions.Destroy(ctx, cookie)
}

// Sessions exposes the session manager for middleware wiring.
func (s *AuthService) Sessions() *auth.SessionManager {
	return s.sessions
}

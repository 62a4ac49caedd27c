package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// UserService covers the admin-only account administration surface.
type UserService struct {
	users      repository.UserRepository
	tx         repository.TxRunner
	dispatcher events.Dispatcher
	bcryptCost int
}

// UserDependencies bundles requirements for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	TxRunner   repository.TxRunner
	Dispatcher events.Dispatcher
	BcryptCost int
}

// UserCreateInput describes the registration form payload.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// NewUserService builds the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		tx:         deps.TxRunner,
		dispatcher: deps.Dispatcher,
		bcryptCost: deps.BcryptCost,
	}
}

// Create registers an account. An invalid role silently falls back to USER;
// a duplicate email surfaces as a conflict without naming the field.
func (s *UserService) Create(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("Name, email and password are required.", nil)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.DefaultRole(strings.TrimSpace(input.Role)),
	}
	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		return s.users.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if domainErr := apperrors.ToDomainError(err); domainErr.Code == apperrors.CodeConflict {
			return nil, apperrors.NewConflict("Could not create user. Email may already exist.")
		}
		return nil, err
	}
	return user, nil
}

// List returns all accounts, newest first.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// ChangeRole updates an account's role. The new role must be a valid enum
// value; beyond that the update is unconditional, so an admin may demote
// themselves or remove the last admin.
func (s *UserService) ChangeRole(ctx context.Context, actor auth.Principal, userID int64, rawRole string) error {
	role, ok := domain.ParseRole(strings.TrimSpace(rawRole))
	if !ok {
		return apperrors.NewValidationError("Invalid role.", nil)
	}

	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		return s.users.WithTx(tx).UpdateRole(ctx, userID, role)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user")
		}
		return err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventUserRoleChanged,
			Actor:     actorFor(actor),
			Timestamp: time.Now(),
			Payload: events.UserRoleChangedPayload{
				TargetUserID: userID,
				NewRole:      role,
			},
		})
	}
	return nil
}

package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/scoo-app/scoo-api/internal/auth"
	"github.com/scoo-app/scoo-api/internal/domain"
	"github.com/scoo-app/scoo-api/internal/events"
	"github.com/scoo-app/scoo-api/internal/repository"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

// CreateUserInput carries the fields accepted for a new account. Callers
// validate shape; the service owns uniqueness.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      domain.Role
}

// UserService manages accounts.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger, bcryptCost int) *UserService {
	return &UserService{users: users, dispatcher: dispatcher, logger: logger, bcryptCost: bcryptCost}
}

var errUserExists = apperrors.NewConflict("email", "User already exist", nil)

// Create registers an account on behalf of actor.
func (s *UserService) Create(ctx context.Context, actor auth.Claim, in CreateUserInput) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	user, err := newAccount(ctx, s.users, in, role, actor, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errUserExists
		}
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventUserCreated,
		SubjectID: user.ID,
		Actor:     events.Actor{UserID: actor.SubjectID, Role: actor.Role},
		Payload:   events.UserCreatedPayload{Email: user.Email, Role: user.Role},
	})
	return user, nil
}

// Get returns an account together with its creator's name.
func (s *UserService) Get(ctx context.Context, id string) (*domain.UserProfile, error) {
	profile, err := s.users.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, err
	}
	return profile, nil
}

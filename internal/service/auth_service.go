package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/scoo-app/scoo-api/internal/auth"
	"github.com/scoo-app/scoo-api/internal/config"
	"github.com/scoo-app/scoo-api/internal/domain"
	"github.com/scoo-app/scoo-api/internal/events"
	"github.com/scoo-app/scoo-api/internal/repository"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

// AuthService exchanges credentials for tokens and resolves the caller.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Login verifies the credentials and issues a token carrying the user's
// id and role.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewValidationError("email", "Invalid user email", nil)
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, "", time.Time{}, apperrors.NewValidationError("password", "Invalid password", nil)
		}
		return nil, "", time.Time{}, err
	}
	if !user.Active {
		return nil, "", time.Time{}, apperrors.NewValidationError(apperrors.ScopeRequest, "User account is disabled", nil)
	}

	token, exp, err := s.tokenMgr.Issue(auth.Claim{SubjectID: user.ID, Role: user.Role})
	if err != nil {
		return nil, "", time.Time{}, err
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventLoginSucceeded,
		SubjectID: user.ID,
		Actor:     events.Actor{UserID: user.ID, Role: user.Role},
	})
	return user, token, exp, nil
}

// Me returns the account behind a verified claim.
func (s *AuthService) Me(ctx context.Context, claim auth.Claim) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, claim.SubjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError(apperrors.ScopeRequest, "Invalid authorization token", nil)
		}
		return nil, err
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

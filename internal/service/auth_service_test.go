package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scoo-app/scoo-api/internal/auth"
	"github.com/scoo-app/scoo-api/internal/config"
	"github.com/scoo-app/scoo-api/internal/domain"
	"github.com/scoo-app/scoo-api/internal/events"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

func requireDomainError(t *testing.T, err error, status int, scope string) *apperrors.DomainError {
	t.Helper()
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected domain error, got %v", err)
	assert.Equal(t, status, de.HTTPStatus)
	assert.Equal(t, scope, de.Scope)
	return de
}

func newTestUser(t *testing.T, id, email, password string, role domain.Role, active bool) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	return &domain.User{ID: id, FirstName: "Ada", LastName: "Lovelace", Email: email, PasswordHash: hash, Role: role, Active: active}
}

func newTestAuthService(t *testing.T, users ...*domain.User) (*AuthService, *recordingDispatcher) {
	t.Helper()
	dispatcher := &recordingDispatcher{}
	svc := NewAuthService(config.AuthConfig{JWTSecret: "s3cret", TokenTTL: time.Hour}, AuthDependencies{
		UserRepo:   newFakeUserRepo(users...),
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
	return svc, dispatcher
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, dispatcher := newTestAuthService(t, newTestUser(t, "u-1", "ada@scoo.app", "pw", domain.RoleAcademic, true))

	user, token, exp, err := svc.Login(context.Background(), "ada@scoo.app", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 2*time.Second)

	claim, err := svc.TokenManager().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, auth.Claim{SubjectID: "u-1", Role: domain.RoleAcademic}, claim)
	assert.Equal(t, []events.EventType{events.EventLoginSucceeded}, dispatcher.types())
}

func TestLoginFailures(t *testing.T) {
	svc, dispatcher := newTestAuthService(t,
		newTestUser(t, "u-1", "ada@scoo.app", "pw", domain.RoleAdmin, true),
		newTestUser(t, "u-2", "off@scoo.app", "pw", domain.RoleAdmin, false),
	)
	ctx := context.Background()

	_, _, _, err := svc.Login(ctx, "nobody@scoo.app", "pw")
	de := requireDomainError(t, err, 400, "email")
	assert.Equal(t, "Invalid user email", de.Message)

	_, _, _, err = svc.Login(ctx, "ada@scoo.app", "wrong")
	de = requireDomainError(t, err, 400, "password")
	assert.Equal(t, "Invalid password", de.Message)

	_, _, _, err = svc.Login(ctx, "off@scoo.app", "pw")
	requireDomainError(t, err, 400, apperrors.ScopeRequest)

	assert.Empty(t, dispatcher.types())
}

func TestMe(t *testing.T) {
	svc, _ := newTestAuthService(t, newTestUser(t, "u-1", "ada@scoo.app", "pw", domain.RoleTeacher, true))

	user, err := svc.Me(context.Background(), auth.Claim{SubjectID: "u-1", Role: domain.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, "Lovelace Ada", user.DisplayName())

	_, err = svc.Me(context.Background(), auth.Claim{SubjectID: "gone", Role: domain.RoleTeacher})
	de := requireDomainError(t, err, 400, apperrors.ScopeRequest)
	assert.Equal(t, "Invalid authorization token", de.Message)
}

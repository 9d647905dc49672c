package auth

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoo-app/scoo-api/internal/domain"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

func TestAuthorizeIsSetMembership(t *testing.T) {
	tiers := []Tier{
		TierAdmin,
		TierAdminAcademic,
		TierStaff,
		TierStudent,
		TierTeacher,
		NewTier(domain.RoleStudent, domain.RoleParent),
		NewTier(),
	}
	for _, tier := range tiers {
		for _, role := range domain.Roles {
			err := Authorize(&Claim{SubjectID: "u-1", Role: role}, tier)
			if tier.Allows(role) {
				assert.NoError(t, err, "%s in %s", role, tier)
				continue
			}
			var authzErr *AuthzError
			require.True(t, errors.As(err, &authzErr), "%s in %s", role, tier)
			assert.Equal(t, AuthzRoleNotPermitted, authzErr.Kind)
			assert.Equal(t, role, authzErr.Role)
		}
	}
}

func TestTierMembership(t *testing.T) {
	assert.True(t, TierStaff.Allows(domain.RoleTeacher))
	assert.True(t, TierStaff.Allows(domain.RoleAcademic))
	assert.False(t, TierAdminAcademic.Allows(domain.RoleTeacher))
	assert.False(t, TierAdmin.Allows(domain.RoleOwner))
	assert.False(t, TierAdmin.Allows(domain.Role("superuser")))
	assert.Equal(t, "{academic,admin,teacher}", TierStaff.String())

	assert.True(t, TierStudent.Allows(domain.RoleStudent))
	assert.False(t, TierStudent.Allows(domain.RoleAdmin))
	assert.True(t, TierTeacher.Allows(domain.RoleTeacher))
	assert.False(t, TierTeacher.Allows(domain.RoleAcademic))
}

func TestAuthorizeStudentAgainstAdminAcademic(t *testing.T) {
	err := Authorize(&Claim{SubjectID: "u-1", Role: domain.RoleStudent}, TierAdminAcademic)

	de := apperrors.ToDomainError(toHTTPError(err))
	assert.Equal(t, "FORBIDDEN", de.Code)
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
}

func TestAuthorizeWithoutClaim(t *testing.T) {
	for _, claim := range []*Claim{nil, {Role: domain.RoleAdmin}} {
		err := Authorize(claim, TierAdmin)
		var authzErr *AuthzError
		require.True(t, errors.As(err, &authzErr))
		assert.Equal(t, AuthzMissingClaim, authzErr.Kind)

		de := apperrors.ToDomainError(toHTTPError(err))
		assert.Equal(t, "FORBIDDEN", de.Code)
		assert.Equal(t, msgNoIdentity, de.Message)
	}
}

func TestTokenErrorsCollapseToUnauthenticated(t *testing.T) {
	for _, kind := range []TokenErrorKind{TokenMalformed, TokenInvalidSignature, TokenExpired} {
		de := apperrors.ToDomainError(toHTTPError(&TokenError{Kind: kind}))
		assert.Equal(t, "UNAUTHENTICATED", de.Code, kind.String())
		assert.Equal(t, msgInvalidToken, de.Message)
		assert.Empty(t, de.Scope)
	}

	de := apperrors.ToDomainError(toHTTPError(&TokenError{Kind: TokenErrorKind(99)}))
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)

	assert.NoError(t, ComparePassword(hash, "correct horse"))
	assert.ErrorIs(t, ComparePassword(hash, "battery staple"), ErrPasswordMismatch)
}

package auth

import (
	"errors"
	"fmt"

	"github.com/scoo-app/scoo-api/internal/domain"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

// TokenErrorKind enumerates why a token failed verification.
type TokenErrorKind int

const (
	TokenMalformed TokenErrorKind = iota + 1
	TokenInvalidSignature
	TokenExpired
)

func (k TokenErrorKind) String() string {
	switch k {
	case TokenMalformed:
		return "malformed"
	case TokenInvalidSignature:
		return "invalid_signature"
	case TokenExpired:
		return "expired"
	default:
		return fmt.Sprintf("token_error(%d)", int(k))
	}
}

// TokenError is returned by TokenManager.Verify.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
	}
	return "token " + e.Kind.String()
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// AuthzErrorKind enumerates why an authorization check failed.
type AuthzErrorKind int

const (
	AuthzMissingClaim AuthzErrorKind = iota + 1
	AuthzRoleNotPermitted
)

func (k AuthzErrorKind) String() string {
	switch k {
	case AuthzMissingClaim:
		return "missing_claim"
	case AuthzRoleNotPermitted:
		return "role_not_permitted"
	default:
		return fmt.Sprintf("authz_error(%d)", int(k))
	}
}

// AuthzError is returned by Authorize.
type AuthzError struct {
	Kind AuthzErrorKind
	Role domain.Role
	Tier Tier
}

func (e *AuthzError) Error() string {
	if e.Kind == AuthzRoleNotPermitted {
		return fmt.Sprintf("role %q not in tier %s", e.Role, e.Tier)
	}
	return e.Kind.String()
}

const (
	msgMissingToken = "No authorization token was found"
	msgInvalidToken = "Invalid authorization token"
	msgNoIdentity   = "Unauthorized token"
	msgRoleDenied   = "Your role is not authorized to proceed this request"
)

// toHTTPError maps the auth error variants onto client-facing errors. Token
// failures collapse to a single message; the kind stays in the logs.
func toHTTPError(err error) error {
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		switch tokenErr.Kind {
		case TokenMalformed, TokenInvalidSignature, TokenExpired:
			return apperrors.NewUnauthenticated(msgInvalidToken)
		}
		return apperrors.NewInternalError(err)
	}

	var authzErr *AuthzError
	if errors.As(err, &authzErr) {
		switch authzErr.Kind {
		case AuthzMissingClaim:
			return apperrors.NewForbidden(msgNoIdentity)
		case AuthzRoleNotPermitted:
			return apperrors.NewForbidden(msgRoleDenied)
		}
		return apperrors.NewInternalError(err)
	}

	return apperrors.NewInternalError(err)
}

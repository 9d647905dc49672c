package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/scoo-app/scoo-api/internal/domain"
)

// Claim is the identity asserted by a verified token.
type Claim struct {
	SubjectID string
	Role      domain.Role
}

// tokenClaims is the JWT payload. The uid/urole names are what existing
// clients decode, keep them stable.
type tokenClaims struct {
	SubjectID string      `json:"uid"`
	Role      domain.Role `json:"urole"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 identity tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a manager signing with secret. A non-positive ttl
// falls back to one hour.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the manager reading time from now.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	clone := *tm
	clone.now = now
	return &clone
}

// TTL reports the lifetime given to issued tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue signs claim with an expiry of now + TTL. Given the same clock
// reading the output is identical.
func (tm *TokenManager) Issue(claim Claim) (string, time.Time, error) {
	issuedAt := tm.now()
	claims := &tokenClaims{
		SubjectID: claim.SubjectID,
		Role:      claim.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(tm.ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks the signature and expiry of tokenStr and returns the
// embedded claim as encoded. Failures are always a *TokenError.
func (tm *TokenManager) Verify(tokenStr string) (Claim, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{}, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return Claim{}, classifyTokenError(err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claim{}, &TokenError{Kind: TokenMalformed, Err: errors.New("unexpected claims type")}
	}
	return Claim{SubjectID: claims.SubjectID, Role: claims.Role}, nil
}

func classifyTokenError(err error) *TokenError {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &TokenError{Kind: TokenMalformed, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &TokenError{Kind: TokenInvalidSignature, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &TokenError{Kind: TokenExpired, Err: err}
	default:
		return &TokenError{Kind: TokenMalformed, Err: err}
	}
}

package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

const claimKey = "auth_claim"

// Outcomes reported to a DecisionRecorder.
const (
	OutcomeAuthenticated   = "authenticated"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeAuthorized      = "authorized"
	OutcomeForbidden       = "forbidden"
)

// DecisionRecorder receives the result of every gate decision.
type DecisionRecorder interface {
	RecordAuthDecision(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuthDecision(string) {}

// GateConfig configures the authentication gate.
type GateConfig struct {
	// HeaderName is the custom header checked before the query string and
	// the Authorization header.
	HeaderName string
	// ExemptPaths are reachable without a token.
	ExemptPaths []string
}

// Authenticator validates one bearer token per request and stores the
// verified claim on the request. It never touches the credential store.
type Authenticator struct {
	tokens   *TokenManager
	header   string
	exempt   map[string]struct{}
	logger   *zap.Logger
	recorder DecisionRecorder
}

// NewAuthenticator constructs the authentication gate.
func NewAuthenticator(tokens *TokenManager, cfg GateConfig, logger *zap.Logger, recorder DecisionRecorder) *Authenticator {
	exempt := make(map[string]struct{}, len(cfg.ExemptPaths))
	for _, p := range cfg.ExemptPaths {
		exempt[normalizePath(p)] = struct{}{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Authenticator{
		tokens:   tokens,
		header:   cfg.HeaderName,
		exempt:   exempt,
		logger:   logger,
		recorder: recorder,
	}
}

// Handle enforces authentication for every non-exempt route it guards.
func (a *Authenticator) Handle(c *fiber.Ctx) error {
	if _, ok := a.exempt[normalizePath(c.Path())]; ok {
		return c.Next()
	}

	raw, source := a.extractToken(c)
	if raw == "" {
		a.recorder.RecordAuthDecision(OutcomeUnauthenticated)
		return apperrors.NewUnauthenticated(msgMissingToken)
	}

	claim, err := a.tokens.Verify(raw)
	if err != nil {
		a.recorder.RecordAuthDecision(OutcomeUnauthenticated)
		kind := "unknown"
		if tokenErr, ok := err.(*TokenError); ok {
			kind = tokenErr.Kind.String()
		}
		a.logger.Warn("token rejected",
			zap.String("path", c.Path()),
			zap.String("source", source),
			zap.String("reason", kind))
		return toHTTPError(err)
	}

	a.recorder.RecordAuthDecision(OutcomeAuthenticated)
	c.Locals(claimKey, &claim)
	return c.Next()
}

// extractToken returns the first token found, in order: custom header,
// ?token= query parameter, Authorization header.
func (a *Authenticator) extractToken(c *fiber.Ctx) (string, string) {
	if a.header != "" {
		if token, ok := bearerToken(c.Get(a.header)); ok {
			return token, "header"
		}
	}
	if token := c.Query("token"); token != "" {
		return token, "query"
	}
	if token, ok := bearerToken(c.Get(fiber.HeaderAuthorization)); ok {
		return token, "authorization"
	}
	return "", ""
}

func bearerToken(value string) (string, bool) {
	scheme, token, found := strings.Cut(value, " ")
	if !found || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func normalizePath(p string) string {
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

// ClaimFromContext retrieves the verified claim, if any.
func ClaimFromContext(c *fiber.Ctx) (*Claim, bool) {
	claim, ok := c.Locals(claimKey).(*Claim)
	return claim, ok && claim != nil
}

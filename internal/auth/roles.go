package auth

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/scoo-app/scoo-api/internal/domain"
)

// Tier is the set of roles allowed to invoke an operation. Membership is a
// plain set test, roles carry no ordering.
type Tier struct {
	roles map[domain.Role]struct{}
}

// NewTier builds a tier admitting exactly the given roles.
func NewTier(roles ...domain.Role) Tier {
	set := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return Tier{roles: set}
}

var (
	TierAdmin         = NewTier(domain.RoleAdmin)
	TierAdminAcademic = NewTier(domain.RoleAdmin, domain.RoleAcademic)
	TierStaff         = NewTier(domain.RoleAdmin, domain.RoleAcademic, domain.RoleTeacher)

	// Self-service tiers for a student's or teacher's own records.
	TierStudent = NewTier(domain.RoleStudent)
	TierTeacher = NewTier(domain.RoleTeacher)
)

// Allows reports whether role is a member of the tier.
func (t Tier) Allows(role domain.Role) bool {
	_, ok := t.roles[role]
	return ok
}

func (t Tier) String() string {
	names := make([]string, 0, len(t.roles))
	for role := range t.roles {
		names = append(names, string(role))
	}
	sort.Strings(names)
	return "{" + strings.Join(names, ",") + "}"
}

// Authorize succeeds when claim is present and its role belongs to tier.
func Authorize(claim *Claim, tier Tier) error {
	if claim == nil || claim.SubjectID == "" {
		return &AuthzError{Kind: AuthzMissingClaim, Tier: tier}
	}
	if !tier.Allows(claim.Role) {
		return &AuthzError{Kind: AuthzRoleNotPermitted, Role: claim.Role, Tier: tier}
	}
	return nil
}

// Authorizer builds per-route role checks. It must run behind Authenticator.
type Authorizer struct {
	logger   *zap.Logger
	recorder DecisionRecorder
}

// NewAuthorizer constructs the authorization gate.
func NewAuthorizer(logger *zap.Logger, recorder DecisionRecorder) *Authorizer {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Authorizer{logger: logger, recorder: recorder}
}

// Require admits the request only when the caller's role is in tier.
func (a *Authorizer) Require(tier Tier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, _ := ClaimFromContext(c)
		if err := Authorize(claim, tier); err != nil {
			a.recorder.RecordAuthDecision(OutcomeForbidden)
			a.logger.Info("request forbidden",
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.Error(err))
			return toHTTPError(err)
		}
		a.recorder.RecordAuthDecision(OutcomeAuthorized)
		return c.Next()
	}
}

package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scoo-app/scoo-api/internal/domain"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

const (
	testHeader    = "X-Scoo-Token"
	testLoginPath = "/api/v1/authorize"
)

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *countingRecorder) RecordAuthDecision(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[outcome]++
}

func (r *countingRecorder) count(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[outcome]
}

type gateFixture struct {
	app      *fiber.App
	tokens   *TokenManager
	recorder *countingRecorder
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()

	tokens := NewTokenManager("s3cret", time.Hour)
	recorder := &countingRecorder{}
	logger := zap.NewNop()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(apperrors.Response(de))
		},
	})

	authn := NewAuthenticator(tokens, GateConfig{HeaderName: testHeader, ExemptPaths: []string{testLoginPath}}, logger, recorder)
	authz := NewAuthorizer(logger, recorder)

	api := app.Group("/api/v1", authn.Handle)
	api.Post("/authorize", func(c *fiber.Ctx) error {
		_, hasClaim := ClaimFromContext(c)
		return c.JSON(fiber.Map{"login": true, "claim": hasClaim})
	})
	api.Get("/whoami", func(c *fiber.Ctx) error {
		claim, ok := ClaimFromContext(c)
		if !ok {
			return fiber.ErrTeapot
		}
		return c.JSON(fiber.Map{"uid": claim.SubjectID, "role": claim.Role})
	})
	api.Get("/groups", authz.Require(TierAdminAcademic), func(c *fiber.Ctx) error {
		return c.SendString("groups")
	})
	api.Post("/users", authz.Require(TierAdmin), func(c *fiber.Ctx) error {
		return c.SendString("created")
	})

	return &gateFixture{app: app, tokens: tokens, recorder: recorder}
}

func (f *gateFixture) token(t *testing.T, id string, role domain.Role) string {
	t.Helper()
	token, _, err := f.tokens.Issue(Claim{SubjectID: id, Role: role})
	require.NoError(t, err)
	return token
}

func (f *gateFixture) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &body))
	} else {
		body["raw"] = string(raw)
	}
	return resp.StatusCode, body
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	f := newGateFixture(t)

	status, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, msgMissingToken, body["message"])
	assert.NotContains(t, body, "failed")
	assert.Equal(t, 1, f.recorder.count(OutcomeUnauthenticated))
}

func TestAuthenticatorLoginPathIsExempt(t *testing.T) {
	f := newGateFixture(t)

	for _, path := range []string{"/api/v1/authorize", "/api/v1/authorize/"} {
		status, body := f.do(t, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusOK, status, path)
		assert.Equal(t, true, body["login"])
		assert.Equal(t, false, body["claim"])
	}

	// A garbage token on the exempt path is ignored rather than rejected.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/authorize?token=garbage", nil)
	status, _ := f.do(t, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Zero(t, f.recorder.count(OutcomeUnauthenticated))
}

func TestAuthenticatorTokenSources(t *testing.T) {
	f := newGateFixture(t)
	token := f.token(t, "u-7", domain.RoleTeacher)

	cases := map[string]func() *http.Request{
		"custom header": func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
			r.Header.Set(testHeader, "Bearer "+token)
			return r
		},
		"query": func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/api/v1/whoami?token="+token, nil)
		},
		"authorization": func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
			r.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
			return r
		},
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			req := build()
			status, body := f.do(t, req)
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, "u-7", body["uid"])
			assert.Equal(t, "teacher", body["role"])
		})
	}
}

func TestAuthenticatorSourcePrecedence(t *testing.T) {
	f := newGateFixture(t)
	headerToken := f.token(t, "from-header", domain.RoleAdmin)
	queryToken := f.token(t, "from-query", domain.RoleAdmin)
	authToken := f.token(t, "from-authorization", domain.RoleAdmin)

	t.Run("custom header beats authorization", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.Header.Set(testHeader, "Bearer "+headerToken)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+authToken)
		_, body := f.do(t, req)
		assert.Equal(t, "from-header", body["uid"])
	})

	t.Run("custom header beats query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami?token="+queryToken, nil)
		req.Header.Set(testHeader, "Bearer "+headerToken)
		_, body := f.do(t, req)
		assert.Equal(t, "from-header", body["uid"])
	})

	t.Run("query beats authorization", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami?token="+queryToken, nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+authToken)
		_, body := f.do(t, req)
		assert.Equal(t, "from-query", body["uid"])
	})

	t.Run("invalid custom header does not fall back", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.Header.Set(testHeader, "Bearer not-a-token")
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+authToken)
		status, body := f.do(t, req)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, msgInvalidToken, body["message"])
	})

	t.Run("custom header without bearer scheme is skipped", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.Header.Set(testHeader, headerToken)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+authToken)
		_, body := f.do(t, req)
		assert.Equal(t, "from-authorization", body["uid"])
	})
}

func TestAuthenticatorRejectsBadTokens(t *testing.T) {
	f := newGateFixture(t)

	expired, _, err := f.tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).
		Issue(Claim{SubjectID: "u-1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	foreign, _, err := NewTokenManager("other", time.Hour).Issue(Claim{SubjectID: "u-1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"foreign":   foreign,
		"malformed": "abc.def",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
			status, body := f.do(t, req)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, msgInvalidToken, body["message"])
		})
	}
}

func TestAuthorizerTiers(t *testing.T) {
	f := newGateFixture(t)

	cases := []struct {
		role   domain.Role
		method string
		path   string
		status int
	}{
		{domain.RoleAdmin, http.MethodGet, "/api/v1/groups", http.StatusOK},
		{domain.RoleAcademic, http.MethodGet, "/api/v1/groups", http.StatusOK},
		{domain.RoleStudent, http.MethodGet, "/api/v1/groups", http.StatusUnauthorized},
		{domain.RoleTeacher, http.MethodGet, "/api/v1/groups", http.StatusUnauthorized},
		{domain.RoleAdmin, http.MethodPost, "/api/v1/users", http.StatusOK},
		{domain.RoleAcademic, http.MethodPost, "/api/v1/users", http.StatusUnauthorized},
		{domain.RoleOwner, http.MethodPost, "/api/v1/users", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(string(tc.role)+" "+tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.Header.Set(testHeader, "Bearer "+f.token(t, "u-1", tc.role))
			status, body := f.do(t, req)
			assert.Equal(t, tc.status, status)
			if tc.status != http.StatusOK {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, apperrors.ScopeRequest, body["failed"])
				assert.Equal(t, msgRoleDenied, body["message"])
			}
		})
	}
	assert.Equal(t, 4, f.recorder.count(OutcomeForbidden))
	assert.Equal(t, 3, f.recorder.count(OutcomeAuthorized))
}

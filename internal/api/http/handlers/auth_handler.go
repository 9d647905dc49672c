package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/scoo-app/scoo-api/internal/api/dto"
	"github.com/scoo-app/scoo-api/internal/auth"
	"github.com/scoo-app/scoo-api/internal/service"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

// AuthHandler exposes credential exchange and the caller's profile.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /api/v1/authorize.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError(apperrors.ScopeRequest, "Invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	_, token, exp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    dto.AuthResponse{Token: token, ExpiresAt: exp},
	})
}

// Me handles GET and POST /api/v1/authorize/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claim, ok := auth.ClaimFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("No authorization token was found")
	}

	user, err := h.auth.Me(c.UserContext(), *claim)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": dto.MeResponse{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.DisplayName(),
			Role:  user.Role,
		},
	})
}

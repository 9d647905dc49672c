package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/scoo-app/scoo-api/internal/api/dto"
	"github.com/scoo-app/scoo-api/internal/auth"
	"github.com/scoo-app/scoo-api/internal/service"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

// UsersHandler exposes account management endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Create handles POST /api/v1/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError(apperrors.ScopeRequest, "Invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	user, err := h.users.Create(c.UserContext(), actor(c), service.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User successfully created",
		"data":    user.ID,
	})
}

// Get handles GET /api/v1/users/:userId.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	profile, err := h.users.Get(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewUserResponse(profile),
	})
}

// actor returns the verified caller. Routes using it sit behind the gate.
func actor(c *fiber.Ctx) auth.Claim {
	if claim, ok := auth.ClaimFromContext(c); ok {
		return *claim
	}
	return auth.Claim{}
}

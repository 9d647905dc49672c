package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/scoo-app/scoo-api/internal/api/dto"
	"github.com/scoo-app/scoo-api/internal/domain"
	"github.com/scoo-app/scoo-api/internal/service"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

// GroupsHandler exposes student group endpoints.
type GroupsHandler struct {
	groups *service.GroupService
}

// NewGroupsHandler constructs handler.
func NewGroupsHandler(groupService *service.GroupService) *GroupsHandler {
	return &GroupsHandler{groups: groupService}
}

// GroupResponse is the public view of a group.
type GroupResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Parent      *string   `json:"parent"`
	Active      bool      `json:"active"`
	CreatedBy   *string   `json:"created_by,omitempty"`
	UpdatedBy   *string   `json:"updated_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newGroupResponse(g domain.Group) GroupResponse {
	return GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Parent:      g.ParentID,
		Active:      g.Active,
		CreatedBy:   g.CreatedBy,
		UpdatedBy:   g.UpdatedBy,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// Create handles POST /api/v1/groups.
func (h *GroupsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError(apperrors.ScopeRequest, "Invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	group, err := h.groups.Create(c.UserContext(), actor(c), service.GroupInput{
		Name:        &req.Name,
		Description: &req.Description,
		ParentID:    req.Parent,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Group successfully created",
		"data":    group.ID,
	})
}

// List handles GET /api/v1/groups.
func (h *GroupsHandler) List(c *fiber.Ctx) error {
	q, err := dto.ParsePageQuery(c)
	if err != nil {
		return err
	}

	page, err := h.groups.List(c.UserContext(), q.Page, q.Limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    pageResponse(page, newGroupResponse),
	})
}

// Get handles GET /api/v1/groups/:groupId.
func (h *GroupsHandler) Get(c *fiber.Ctx) error {
	group, err := h.groups.Get(c.UserContext(), c.Params("groupId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    newGroupResponse(*group),
	})
}

// Update handles PUT /api/v1/groups/:groupId.
func (h *GroupsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError(apperrors.ScopeRequest, "Invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	group, err := h.groups.Update(c.UserContext(), actor(c), c.Params("groupId"), service.GroupInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.Parent,
		Active:      req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    newGroupResponse(*group),
	})
}

// AddStudents handles POST /api/v1/groups/:groupId.
func (h *GroupsHandler) AddStudents(c *fiber.Ctx) error {
	var req dto.StudentsRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	added, err := h.groups.AddStudents(c.UserContext(), actor(c), c.Params("groupId"), req.Students)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Students successfully added to group",
		"data":    fiber.Map{"added": added},
	})
}

package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/scoo-app/scoo-api/internal/api/dto"
	"github.com/scoo-app/scoo-api/internal/domain"
	"github.com/scoo-app/scoo-api/internal/service"
)

// StudentsHandler exposes student records and their group membership.
type StudentsHandler struct {
	students *service.StudentService
}

func NewStudentsHandler(studentService *service.StudentService) *StudentsHandler {
	return &StudentsHandler{students: studentService}
}

// Enroll handles POST /api/v1/students.
func (h *StudentsHandler) Enroll(c *fiber.Ctx) error {
	var req dto.EnrollStudentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	student, err := h.students.Enroll(c.UserContext(), actor(c), service.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Student successfully created",
		"data":    student.ID,
	})
}

// Promote handles POST /api/v1/students/:userId.
func (h *StudentsHandler) Promote(c *fiber.Ctx) error {
	student, err := h.students.Promote(c.UserContext(), actor(c), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Student successfully created",
		"data":    student.ID,
	})
}

// Get handles GET /api/v1/students/:studentId.
func (h *StudentsHandler) Get(c *fiber.Ctx) error {
	view, err := h.students.Get(c.UserContext(), c.Params("studentId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewStudentResponse(*view)})
}

// List handles GET /api/v1/students.
func (h *StudentsHandler) List(c *fiber.Ctx) error {
	page, err := listPage(c, func(page, limit int) (*service.Page[domain.StudentView], error) {
		return h.students.List(c.UserContext(), page, limit)
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": pageResponse(page, dto.NewStudentResponse)})
}

// Groups handles GET /api/v1/students/:studentId/groups.
func (h *StudentsHandler) Groups(c *fiber.Ctx) error {
	page, err := listPage(c, func(page, limit int) (*service.Page[domain.Group], error) {
		return h.students.Groups(c.UserContext(), c.Params("studentId"), page, limit)
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": pageResponse(page, newGroupResponse)})
}

// AddGroups handles PUT /api/v1/students/:studentId/add-groups.
func (h *StudentsHandler) AddGroups(c *fiber.Ctx) error {
	var req dto.GroupsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	view, err := h.students.AddGroups(c.UserContext(), actor(c), c.Params("studentId"), req.Groups)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewStudentResponse(*view)})
}

// RemoveGroups handles PATCH /api/v1/students/:studentId/remove-group.
func (h *StudentsHandler) RemoveGroups(c *fiber.Ctx) error {
	var req dto.GroupsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	view, err := h.students.RemoveGroups(c.UserContext(), actor(c), c.Params("studentId"), req.Groups)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewStudentResponse(*view)})
}

// Stats handles GET /api/v1/students/stats/basic for the calling student.
func (h *StudentsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.students.Stats(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewStatsResponse(stats)})
}

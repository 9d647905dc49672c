package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/scoo-app/scoo-api/internal/api/dto"
	"github.com/scoo-app/scoo-api/internal/domain"
	"github.com/scoo-app/scoo-api/internal/service"
)

// TeachersHandler exposes teacher records and a teacher's own dashboard.
type TeachersHandler struct {
	teachers *service.TeacherService
}

func NewTeachersHandler(teacherService *service.TeacherService) *TeachersHandler {
	return &TeachersHandler{teachers: teacherService}
}

// Create handles POST /api/v1/teachers.
func (h *TeachersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTeacherRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	teacher, password, err := h.teachers.Create(c.UserContext(), actor(c), service.CreateTeacherInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Specialty: req.Specialty,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Teacher successfully created",
		"data":    dto.TeacherCreatedResponse{ID: teacher.ID, Password: password},
	})
}

// Get handles GET /api/v1/teachers/:teacherId.
func (h *TeachersHandler) Get(c *fiber.Ctx) error {
	view, err := h.teachers.Get(c.UserContext(), c.Params("teacherId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewTeacherResponse(*view)})
}

// List handles GET /api/v1/teachers.
func (h *TeachersHandler) List(c *fiber.Ctx) error {
	page, err := listPage(c, func(page, limit int) (*service.Page[domain.TeacherView], error) {
		return h.teachers.List(c.UserContext(), page, limit)
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": pageResponse(page, dto.NewTeacherResponse)})
}

// Stats handles GET /api/v1/teachers/stats/basic for the calling teacher.
func (h *TeachersHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.teachers.Stats(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewStatsResponse(stats)})
}

// DailyCourses handles GET /api/v1/teachers/courses/daily.
func (h *TeachersHandler) DailyCourses(c *fiber.Ctx) error {
	courses, err := h.teachers.DailyCourses(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	items := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		items = append(items, dto.NewCourseResponse(course))
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"dailyCourses": items}})
}

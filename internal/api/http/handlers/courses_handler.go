package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/scoo-app/scoo-api/internal/api/dto"
	"github.com/scoo-app/scoo-api/internal/domain"
	"github.com/scoo-app/scoo-api/internal/service"
)

// CoursesHandler exposes course scheduling and attendance.
type CoursesHandler struct {
	courses *service.CourseService
}

func NewCoursesHandler(courseService *service.CourseService) *CoursesHandler {
	return &CoursesHandler{courses: courseService}
}

// Create handles POST /api/v1/courses.
func (h *CoursesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateCourseRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	course, err := h.courses.Create(c.UserContext(), actor(c), service.CreateCourseInput{
		Name:        req.Name,
		Description: req.Description,
		ClassRoom:   req.ClassRoom,
		TeacherID:   req.Teacher,
		Start:       req.Start,
		End:         req.End,
		GroupIDs:    req.Groups,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Course successfully created",
		"data":    course.ID,
	})
}

// Get handles GET /api/v1/courses/:courseId.
func (h *CoursesHandler) Get(c *fiber.Ctx) error {
	course, err := h.courses.Get(c.UserContext(), c.Params("courseId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewCourseResponse(*course)})
}

// List handles GET /api/v1/courses.
func (h *CoursesHandler) List(c *fiber.Ctx) error {
	page, err := listPage(c, func(page, limit int) (*service.Page[domain.Course], error) {
		return h.courses.List(c.UserContext(), page, limit)
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": pageResponse(page, dto.NewCourseResponse)})
}

// RecordAttendance handles POST /api/v1/courses/:courseId/attendance.
func (h *CoursesHandler) RecordAttendance(c *fiber.Ctx) error {
	var req dto.AttendanceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	stats, err := h.courses.RecordAttendance(c.UserContext(), actor(c), c.Params("courseId"), req.Marks())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Attendance successfully recorded",
		"data":    dto.NewStatsResponse(stats),
	})
}

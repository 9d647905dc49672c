package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scoo-app/scoo-api/internal/api/http/handlers"
	"github.com/scoo-app/scoo-api/internal/auth"
	"github.com/scoo-app/scoo-api/internal/config"
	"github.com/scoo-app/scoo-api/internal/observability"
)

// APIPrefix is the mount point of every gated route.
const APIPrefix = config.APIPrefix

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Groups         *handlers.GroupsHandler
	Students       *handlers.StudentsHandler
	Teachers       *handlers.TeachersHandler
	Courses        *handlers.CoursesHandler
	Authenticator  *auth.Authenticator
	Authorizer     *auth.Authorizer
	LoginRateLimit fiber.Handler
	Metrics        *observability.Metrics
	// LoginPath is the full login route, e.g. /api/v1/authorize. The
	// profile route is mounted at LoginPath + "/me".
	LoginPath string
}

// RegisterRoutes wires HTTP routes. Probes and metrics sit outside the
// gate; everything under APIPrefix passes through it.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	api := app.Group(APIPrefix, cfg.Authenticator.Handle)

	loginPath := loginRoute(cfg.LoginPath)
	login := []fiber.Handler{cfg.Auth.Login}
	if cfg.LoginRateLimit != nil {
		login = append([]fiber.Handler{cfg.LoginRateLimit}, login...)
	}
	api.Post(loginPath, login...)
	api.Get(loginPath+"/me", cfg.Auth.Me)
	api.Post(loginPath+"/me", cfg.Auth.Me)

	authz := cfg.Authorizer
	users := api.Group("/users")
	users.Post("/", authz.Require(auth.TierAdmin), cfg.Users.Create)
	users.Get("/:userId", authz.Require(auth.TierAdminAcademic), cfg.Users.Get)

	groups := api.Group("/groups")
	groups.Post("/", authz.Require(auth.TierAdminAcademic), cfg.Groups.Create)
	groups.Get("/", authz.Require(auth.TierStaff), cfg.Groups.List)
	groups.Get("/:groupId", authz.Require(auth.TierAdminAcademic), cfg.Groups.Get)
	groups.Post("/:groupId", authz.Require(auth.TierAdminAcademic), cfg.Groups.AddStudents)
	groups.Put("/:groupId", authz.Require(auth.TierAdminAcademic), cfg.Groups.Update)

	if cfg.Students != nil {
		students := api.Group("/students")
		students.Post("/", authz.Require(auth.TierAdminAcademic), cfg.Students.Enroll)
		students.Get("/", authz.Require(auth.TierAdminAcademic), cfg.Students.List)
		students.Get("/stats/basic", authz.Require(auth.TierStudent), cfg.Students.Stats)
		students.Post("/:userId", authz.Require(auth.TierAdminAcademic), cfg.Students.Promote)
		students.Get("/:studentId", cfg.Students.Get)
		students.Get("/:studentId/groups", authz.Require(auth.TierAdminAcademic), cfg.Students.Groups)
		students.Put("/:studentId/add-groups", authz.Require(auth.TierAdminAcademic), cfg.Students.AddGroups)
		students.Patch("/:studentId/remove-group", authz.Require(auth.TierAdminAcademic), cfg.Students.RemoveGroups)
	}

	if cfg.Teachers != nil {
		teachers := api.Group("/teachers")
		teachers.Post("/", authz.Require(auth.TierAdminAcademic), cfg.Teachers.Create)
		teachers.Get("/", authz.Require(auth.TierAdminAcademic), cfg.Teachers.List)
		teachers.Get("/stats/basic", authz.Require(auth.TierTeacher), cfg.Teachers.Stats)
		teachers.Get("/courses/daily", authz.Require(auth.TierTeacher), cfg.Teachers.DailyCourses)
		teachers.Get("/:teacherId", cfg.Teachers.Get)
	}

	if cfg.Courses != nil {
		courses := api.Group("/courses")
		courses.Post("/", authz.Require(auth.TierAdminAcademic), cfg.Courses.Create)
		courses.Get("/", authz.Require(auth.TierAdminAcademic), cfg.Courses.List)
		courses.Get("/:courseId", authz.Require(auth.TierAdminAcademic), cfg.Courses.Get)
		courses.Post("/:courseId/attendance", authz.Require(auth.TierTeacher), cfg.Courses.RecordAttendance)
	}
}

// loginRoute returns the login path relative to APIPrefix.
func loginRoute(full string) string {
	if full == "" {
		full = APIPrefix + "/authorize"
	}
	return strings.TrimPrefix(strings.TrimRight(full, "/"), APIPrefix)
}

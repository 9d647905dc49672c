package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/scoo-app/scoo-api/internal/api/http"
	"github.com/scoo-app/scoo-api/internal/api/http/handlers"
	"github.com/scoo-app/scoo-api/internal/auth"
	"github.com/scoo-app/scoo-api/internal/config"
	"github.com/scoo-app/scoo-api/internal/events"
	"github.com/scoo-app/scoo-api/internal/observability"
	"github.com/scoo-app/scoo-api/internal/persistence"
	"github.com/scoo-app/scoo-api/internal/ratelimit"
	"github.com/scoo-app/scoo-api/internal/repository"
	"github.com/scoo-app/scoo-api/internal/service"
	"github.com/scoo-app/scoo-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics("scoo")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := persistence.OpenDatabase(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, db.Pool, persistence.Migrations, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.OpenRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	userRepo := repository.NewUserRepository(db.Pool)
	groupRepo := repository.NewGroupRepository(db.Pool)
	studentRepo := repository.NewStudentRepository(db.Pool)
	teacherRepo := repository.NewTeacherRepository(db.Pool)
	courseRepo := repository.NewCourseRepository(db.Pool)

	dispatcher := events.NewBus()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(userRepo, dispatcher, logger, cfg.Auth.BcryptCost)
	groupService := service.NewGroupService(groupRepo, studentRepo, dispatcher, logger)
	studentService := service.NewStudentService(service.StudentDependencies{
		Students:   studentRepo,
		Users:      userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	teacherService := service.NewTeacherService(service.TeacherDependencies{
		Teachers:   teacherRepo,
		Users:      userRepo,
		Courses:    courseRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	courseService := service.NewCourseService(service.CourseDependencies{
		Courses:    courseRepo,
		Teachers:   teacherRepo,
		Students:   studentRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	authenticator := auth.NewAuthenticator(authService.TokenManager(), auth.GateConfig{
		HeaderName:  cfg.Auth.TokenHeader,
		ExemptPaths: []string{cfg.Auth.LoginPath},
	}, logger, metrics)
	authorizer := auth.NewAuthorizer(logger, metrics)

	var loginLimit fiber.Handler
	if cfg.RateLimit.Enabled {
		loginLimit = httptransport.LoginRateLimit(ratelimit.NewTokenBucket(redis.Client, cfg.RateLimit), logger)
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": db,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Groups:         handlers.NewGroupsHandler(groupService),
		Students:       handlers.NewStudentsHandler(studentService),
		Teachers:       handlers.NewTeachersHandler(teacherService),
		Courses:        handlers.NewCoursesHandler(courseService),
		Authenticator:  authenticator,
		Authorizer:     authorizer,
		LoginRateLimit: loginLimit,
		Metrics:        metrics,
		LoginPath:      cfg.Auth.LoginPath,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/edutrack/edutrack-go-api/internal/config"
	"github.com/edutrack/edutrack-go-api/internal/handler"
	"github.com/edutrack/edutrack-go-api/internal/middleware"
	"github.com/edutrack/edutrack-go-api/internal/models"
	"github.com/edutrack/edutrack-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	CourseHandler     *handler.CourseHandler
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	ActivityHandler   *handler.ActivityHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", 20, time.Minute))
		deps.AuthHandler.Register(auth)
	}

	protected := api.Group("", jwtMiddleware)

	if deps.UserHandler != nil {
		deps.UserHandler.Register(protected.Group("/users"))
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(protected.Group("/courses"))
		deps.CourseHandler.RegisterEnrollments(protected.Group("/enrollments"))
	}

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(protected.Group("/assignments"))
	}

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(protected.Group("/submissions"))
	}

	if deps.ActivityHandler != nil {
		activity := protected.Group("/activity", middleware.RequireRole(models.RoleTeacher))
		deps.ActivityHandler.Register(activity)
	}
}

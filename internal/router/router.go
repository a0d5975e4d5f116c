package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/classboard/classboard-api/internal/config"
	"github.com/classboard/classboard-api/internal/handler"
	"github.com/classboard/classboard-api/internal/middleware"
	"github.com/classboard/classboard-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ClassroomHandler  *handler.ClassroomHandler
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	DPPHandler        *handler.DPPHandler
	QuestionHandler   *handler.QuestionHandler
	AnalyticsHandler  *handler.AnalyticsHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ClassroomHandler != nil {
		classrooms := app.Group("/api/v1/classrooms", jwtMiddleware, middleware.RequireRole("teacher"))
		deps.ClassroomHandler.Register(classrooms)
	}

	if deps.AssignmentHandler != nil {
		assignments := app.Group("/api/v1/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)

		student := app.Group("/api/v1/student", jwtMiddleware)
		deps.AssignmentHandler.RegisterStudent(student)
	}

	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v1/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)

		student := app.Group("/api/v1/student", jwtMiddleware)
		deps.SubmissionHandler.RegisterStudent(student)
	}

	if deps.DPPHandler != nil {
		dpps := app.Group("/api/v1/dpps", jwtMiddleware)
		deps.DPPHandler.Register(dpps)

		student := app.Group("/api/v1/student", jwtMiddleware)
		deps.DPPHandler.RegisterStudent(student)
	}

	if deps.QuestionHandler != nil {
		questions := app.Group("/api/v1/questions",
			jwtMiddleware,
			middleware.RequireRole("teacher"),
			middleware.RateLimit("question-generate", 5, time.Minute),
		)
		deps.QuestionHandler.Register(questions)
	}

	if deps.AnalyticsHandler != nil {
		analytics := app.Group("/api/v1/analytics", jwtMiddleware, middleware.RequireRole("teacher"))
		deps.AnalyticsHandler.Register(analytics)
	}
}

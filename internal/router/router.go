package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/examhub/examhub-api/internal/config"
	"github.com/examhub/examhub-api/internal/handler"
	"github.com/examhub/examhub-api/internal/middleware"
	"github.com/examhub/examhub-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ExamHandler         *handler.ExamHandler
	QuestionHandler     *handler.QuestionHandler
	TakeExamHandler     *handler.TakeExamHandler
	GradingHandler      *handler.GradingHandler
	SubmissionHandler   *handler.SubmissionHandler
	ReportHandler       *handler.ReportHandler
	NotificationHandler *handler.NotificationHandler
	ActivityHandler     *handler.ActivityHandler
	JWTMiddleware       fiber.Handler
	SubmitRateLimit     fiber.Handler
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

	// Instructor surface: exam and question management, grading, rosters,
	// reports and the audit trail.
	if deps.ExamHandler != nil {
		exams := app.Group("/api/v1/exams", jwtMiddleware, middleware.RequireRole(middleware.RoleInstructor))
		deps.ExamHandler.Register(exams)

		if deps.QuestionHandler != nil {
			deps.QuestionHandler.RegisterExamRoutes(exams)
			questions := app.Group("/api/v1/questions", jwtMiddleware, middleware.RequireRole(middleware.RoleInstructor))
			deps.QuestionHandler.RegisterQuestionRoutes(questions)
		}
		if deps.SubmissionHandler != nil {
			deps.SubmissionHandler.RegisterRosterRoute(exams)
		}
		if deps.ReportHandler != nil {
			deps.ReportHandler.RegisterExamRoutes(exams)
			courses := app.Group("/api/v1/courses", jwtMiddleware, middleware.RequireRole(middleware.RoleInstructor))
			deps.ReportHandler.RegisterCourseRoutes(courses)
		}
	}

	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v1/submissions", jwtMiddleware, middleware.RequireRole(middleware.RoleInstructor))
		deps.SubmissionHandler.RegisterInstructorRoutes(submissions)
		if deps.GradingHandler != nil {
			deps.GradingHandler.Register(submissions)
		}
	}

	if deps.ActivityHandler != nil {
		activity := app.Group("/api/v1/activity", jwtMiddleware, middleware.RequireRole(middleware.RoleInstructor))
		deps.ActivityHandler.Register(activity)
	}

	// Student surface: taking exams and reading back own results.
	if deps.TakeExamHandler != nil {
		take := app.Group("/api/v1/take/exams", jwtMiddleware, middleware.RequireRole(middleware.RoleStudent))
		if deps.SubmitRateLimit != nil {
			take.Use("/:id/submit", deps.SubmitRateLimit)
		}
		deps.TakeExamHandler.Register(take)
	}

	if deps.SubmissionHandler != nil {
		my := app.Group("/api/v1/my", jwtMiddleware, middleware.RequireRole(middleware.RoleStudent))
		deps.SubmissionHandler.RegisterStudentRoutes(my)
	}

	if deps.NotificationHandler != nil {
		notifications := app.Group("/api/v1/notifications", jwtMiddleware, middleware.RequireRole(middleware.RoleStudent, middleware.RoleInstructor))
		deps.NotificationHandler.Register(notifications)
	}
}

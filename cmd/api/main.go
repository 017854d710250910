package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/examhub/examhub-api/internal/config"
	"github.com/examhub/examhub-api/internal/database"
	"github.com/examhub/examhub-api/internal/handler"
	"github.com/examhub/examhub-api/internal/middleware"
	"github.com/examhub/examhub-api/internal/models"
	"github.com/examhub/examhub-api/internal/repository"
	"github.com/examhub/examhub-api/internal/router"
	"github.com/examhub/examhub-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{}, &models.Course{}, &models.Enrollment{},
		&models.Exam{}, &models.Question{}, &models.QuestionOption{},
		&models.Submission{}, &models.Answer{},
		&models.ActivityLog{}, &models.Notification{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	examRepo := repository.NewExamRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, "examhub", natsConn, logger)
	examService := service.NewExamService(examRepo, courseRepo, submissionRepo, validate, activityService, cfg.ExamLocation, logger)
	questionService := service.NewQuestionService(questionRepo, examRepo, submissionRepo, validate, activityService, logger)
	takeExamService := service.NewTakeExamService(submissionRepo, examRepo, questionRepo, studentRepo, validate, notificationService, cfg.ExamLocation, logger)
	gradingService := service.NewGradingService(submissionRepo, questionRepo, validate, activityService, notificationService, logger)
	submissionService := service.NewSubmissionService(submissionRepo, examRepo, studentRepo, logger)
	reportService := service.NewReportService(examRepo, questionRepo, submissionRepo, studentRepo, redisClient, cfg.ReportCacheTTL, cfg.PassingPercent, logger)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	notificationService.Start(runCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ExamHandler:         handler.NewExamHandler(examService, logger),
		QuestionHandler:     handler.NewQuestionHandler(questionService, logger),
		TakeExamHandler:     handler.NewTakeExamHandler(takeExamService, logger),
		GradingHandler:      handler.NewGradingHandler(gradingService, logger),
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, logger),
		ReportHandler:       handler.NewReportHandler(reportService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, 30*time.Second),
		ActivityHandler:     handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		SubmitRateLimit:     middleware.RateLimit("exam-submit", cfg.SubmitRateLimit, time.Minute),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(runCtx, app)
}

func waitForShutdown(runCtx context.Context, app *fiber.App) {
	<-runCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}

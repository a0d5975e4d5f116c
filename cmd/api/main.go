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
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classboard/classboard-api/internal/config"
	"github.com/classboard/classboard-api/internal/database"
	"github.com/classboard/classboard-api/internal/handler"
	"github.com/classboard/classboard-api/internal/middleware"
	"github.com/classboard/classboard-api/internal/models"
	"github.com/classboard/classboard-api/internal/repository"
	"github.com/classboard/classboard-api/internal/router"
	"github.com/classboard/classboard-api/internal/service"
	"github.com/classboard/classboard-api/pkg/ai"
	cloud "github.com/classboard/classboard-api/pkg/cloudinary"
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
		&models.Teacher{}, &models.Student{}, &models.Classroom{}, &models.Enrollment{},
		&models.Assignment{}, &models.Submission{},
		&models.DailyPracticeProblem{}, &models.DPPSubmission{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis is optional; analytics falls back to recomputing on every call.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, analytics caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats url not configured, classroom events disabled")
	}
	events := service.NewEventPublisher(natsConn, "classboard.events", logger)

	// Cloudinary is optional; file submissions report storage unavailable.
	var uploader service.FileUploader
	if cfg.CloudinaryCloudName != "" {
		cloudService, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = cloudService
	} else {
		logger.Warn().Msg("cloudinary not configured, file submissions disabled")
	}

	// OpenAI is optional; generation then serves templated questions only.
	var generator ai.Generator
	if cfg.OpenAIAPIKey != "" {
		openAIGenerator, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
			APIKey:         cfg.OpenAIAPIKey,
			Models:         cfg.AIModels,
			AttemptTimeout: cfg.AIAttemptTimeout,
			ExcerptLimit:   cfg.ExcerptLimit,
			Logger:         logger,
		})
		if err != nil {
			log.Fatalf("failed to create question generator: %v", err)
		}
		generator = openAIGenerator
	} else {
		logger.Warn().Msg("openai api key not configured, question generation uses local templates")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	classroomRepo := repository.NewClassroomRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	dppRepo := repository.NewDPPRepository(db)

	classroomService := service.NewClassroomService(classroomRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, classroomRepo, validate, events, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, classroomRepo, validate, events, logger)
	dppService := service.NewDPPService(dppRepo, classroomRepo, validate, uploader, service.UploadLimits{
		MaxFileBytes:      cfg.MaxFileBytes(),
		AllowedExtensions: cfg.AllowedFileExtensions,
	}, events, logger)
	questionService := service.NewQuestionService(generator, ai.NewTemplateGenerator(), validate, cfg.MaxQuestionCount, logger)
	analyticsService := service.NewAnalyticsService(assignmentRepo, submissionRepo, dppRepo, redisClient, cfg.AnalyticsCacheTTL, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ClassroomHandler:  handler.NewClassroomHandler(classroomService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		DPPHandler:        handler.NewDPPHandler(dppService, logger),
		QuestionHandler:   handler.NewQuestionHandler(questionService, logger),
		AnalyticsHandler:  handler.NewAnalyticsHandler(analyticsService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}

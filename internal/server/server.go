// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"socialdeck/internal/cache"
	"socialdeck/internal/catalog"
	"socialdeck/internal/config"
	"socialdeck/internal/database"
	"socialdeck/internal/generation"
	"socialdeck/internal/middleware"
	"socialdeck/internal/models"
	"socialdeck/internal/observability"
	"socialdeck/internal/repository"
	"socialdeck/internal/seed"
	"socialdeck/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "socialdeck-api"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	catalog        *catalog.Catalog

	scheduleService   *service.ScheduleService
	profileService    *service.ProfileService
	generationService *service.GenerationService
	connectionService *service.ConnectionService
	sessionService    *service.SessionService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; without it per-user documents stay in process.
	redisClient := cache.Connect(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	cat := catalog.Default()

	factory, err := seed.NewPostFactory(cat, cfg.DemoSeed, nil)
	if err != nil {
		return nil, err
	}
	script, err := generation.NewScriptGenerator(cat.Script.Template)
	if err != nil {
		return nil, err
	}
	registry := generation.NewRegistry(
		generation.NewImageGenerator(cfg.ImageGenerationURL, cfg.ImageGenerationAPIKey, cfg.GenerationTimeout()),
		generation.NewVideoGenerator(cat),
		script,
		generation.NewCaptionGenerator(),
	)

	kv := repository.NewKVStore(redisClient)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.NewPrometheus(serviceName),
		catalog:        cat,
	}
	server.scheduleService = service.NewScheduleService(
		repository.NewScheduledPostRepository(kv),
		factory,
		service.ScheduleOptions{Location: cfg.Location(), SeedCount: cfg.DemoPostCount},
	)
	server.profileService = service.NewProfileService(
		repository.NewProfileRepository(db, redisClient), cat, cfg.AvatarRenderURL, nil)
	server.generationService = service.NewGenerationService(
		registry,
		repository.NewArtifactRepository(db, redisClient, cfg.GenerationHistoryLimit),
		service.GenerationOptions{
			Timeout:      cfg.GenerationTimeout(),
			Retries:      cfg.GenerationRetries,
			HistoryLimit: cfg.GenerationHistoryLimit,
		},
	)
	server.connectionService = service.NewConnectionService(repository.NewConnectionRepository(kv))
	server.sessionService = service.NewSessionService(redisClient, nil)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Tracing sets the trace ID the context middleware copies into the request context
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error:  "Too many requests, please try again later.",
				Notice: models.NewNotice(models.SeverityWarning, "Too many requests, please try again later."),
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api", s.AuthRequired())

	session := api.Group("/session")
	session.Get("/me", s.GetSession)
	session.Post("/logout", s.Logout)

	// Define /generate before generic /:id routes
	posts := api.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Post("/generate", s.GeneratePosts)
	posts.Post("/:id/status", s.TransitionPost)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	analytics := api.Group("/analytics")
	analytics.Get("/summary", s.GetSummary)
	analytics.Get("/timeseries", s.GetTimeSeries)
	analytics.Get("/breakdown", s.GetBreakdown)

	profile := api.Group("/profile")
	profile.Get("/", s.GetProfile)
	profile.Put("/", s.UpdateProfile)
	profile.Get("/catalog", s.GetCatalog)
	profile.Post("/traits/:trait", s.ToggleTrait)
	profile.Put("/avatar/:field", s.SetAvatarField)

	generate := api.Group("/generate")
	generate.Get("/:kind", s.GetGenerationHistory)
	generate.Post("/:kind", middleware.RoleRateLimit(
		s.redis,
		s.config.BasicGenerationsPerHour,
		s.config.PremiumGenerationsPerHour,
		time.Hour, "generate"), s.GenerateArtifact)

	connections := api.Group("/connections")
	connections.Get("/", s.ListConnections)
	connections.Post("/:platform/toggle", s.ToggleConnection)
}

// App builds the Fiber app with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "socialdeck API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, &models.AppError{Code: codeForStatus(fe.Code), Message: fe.Message})
			}
			observability.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.App()

	observability.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	// Close database connection
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				observability.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
			}
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	observability.Logger.Info("Server shutdown complete")
	return nil
}

package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/sirupsen/logrus"

	"github.com/myflix/catalog-api/internal/auth"
	"github.com/myflix/catalog-api/internal/cache"
	"github.com/myflix/catalog-api/internal/config"
	"github.com/myflix/catalog-api/internal/metrics"
	"github.com/myflix/catalog-api/internal/middleware"
	"github.com/myflix/catalog-api/internal/store"
	errs "github.com/myflix/catalog-api/pkg/errors"
)

// Setup configures all API routes. Everything except the root greeting,
// login, registration and the ops endpoints sits behind the bearer gate.
func Setup(app *fiber.App, cfg *config.Config, logger *logrus.Logger, middlewareManager *middleware.Manager,
	tokens *auth.TokenService, users store.UserStore, movies store.MovieStore, movieCache *cache.MovieCache) {

	authenticator := auth.NewAuthenticator(users, logger)

	authHandler := NewAuthHandler(authenticator, tokens, users, logger)
	userHandler := NewUserHandler(users, logger)
	movieHandler := NewMovieHandler(movies, movieCache, logger)
	adminHandler := NewAdminHandler(middlewareManager.RedisClient, movieCache, logger)

	// Root greeting (no auth required)
	app.Get("/", rootHandler)

	// Health check endpoints (no auth required)
	app.Get("/healthz", healthCheck)
	app.Get("/readyz", readinessCheck(middlewareManager))
	app.Get("/version", versionHandler)

	// Metrics endpoint (no auth required)
	app.Get(cfg.Observability.MetricsPath, metrics.PrometheusHandler())

	// Swagger documentation endpoint (no auth required)
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Use(metrics.HTTPMetricsMiddleware())
	app.Use(middlewareManager.ErrorLogger.Handle())
	app.Use(middlewareManager.RateLimit.Handle())
	app.Use(middlewareManager.Idempotency.Handle())
	app.Use(middlewareManager.Idempotency.ResponseCapture())

	// Auth routes (public)
	authRoutes := app.Group("/auth")
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/register", authHandler.Register)

	// Admin routes (ops network only; fronted by infrastructure ACLs)
	adminRoutes := app.Group("/admin")
	adminRoutes.Get("/health", adminHandler.HealthCheck)
	adminRoutes.Get("/stats", adminHandler.GetStats)
	adminRoutes.Post("/cache/flush", adminHandler.FlushCache)

	// Protected routes (require a valid bearer token)
	protected := app.Group("")
	protected.Use(middlewareManager.Auth.RequireAuth())

	userRoutes := protected.Group("/users")
	userRoutes.Get("/", userHandler.List)
	userRoutes.Get("/:username", userHandler.Get)
	userRoutes.Put("/:username", userHandler.Update)
	userRoutes.Delete("/:username", userHandler.Delete)
	userRoutes.Post("/:username/movies/:movieID", userHandler.AddFavorite)
	userRoutes.Delete("/:username/movies/:movieID", userHandler.RemoveFavorite)

	movieRoutes := protected.Group("/movies")
	movieRoutes.Get("/", movieHandler.List)
	movieRoutes.Get("/:title", movieHandler.GetByTitle)

	protected.Get("/genres/:name", movieHandler.GetGenre)
	protected.Get("/directors/:name", movieHandler.GetDirector)

	// 404 handler
	app.Use(notFoundHandler)
}

// errorResponse writes the standardized error body for the given code
func errorResponse(c *fiber.Ctx, code errs.ErrorCode, message string) error {
	status, ok := errs.HTTPStatusMap[code]
	if !ok {
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":     code,
			"message":  message,
			"trace_id": c.Get("X-Request-ID"),
		},
	})
}

// rootHandler greets the caller so testers can confirm the server is up
// @Summary Root greeting
// @Tags System
// @Produce plain
// @Success 200 {string} string "Greeting"
// @Router / [get]
func rootHandler(c *fiber.Ctx) error {
	return c.SendString("Welcome to the myFlix movie API!")
}

// healthCheck returns the health status of the service
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Healthy"
// @Router /healthz [get]
func healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "catalog-api",
	})
}

// readinessCheck checks if the service is ready to accept traffic
// @Summary Readiness check
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Ready"
// @Failure 503 {object} map[string]interface{} "Not ready"
// @Router /readyz [get]
func readinessCheck(middlewareManager *middleware.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		redisHealthCheck := middleware.RedisHealthCheck(middlewareManager.RedisClient, middlewareManager.Logger)
		if err := redisHealthCheck(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":    "not ready",
				"reason":    "redis unavailable",
				"timestamp": time.Now().UTC(),
			})
		}

		return c.JSON(fiber.Map{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "catalog-api",
		})
	}
}

// versionHandler returns version information
// @Summary Version information
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Version info"
// @Router /version [get]
func versionHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "catalog-api",
		"version": getVersion(),
	})
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": fiber.Map{
			"code":     "NOT_FOUND",
			"message":  "The requested resource was not found",
			"path":     c.Path(),
			"trace_id": c.Get("X-Request-ID"),
		},
	})
}

// getVersion is set at build time via ldflags in release builds
func getVersion() string {
	return "dev"
}

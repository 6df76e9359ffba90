package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"

	_ "github.com/myflix/catalog-api/docs" // Swagger docs
	"github.com/myflix/catalog-api/internal/auth"
	"github.com/myflix/catalog-api/internal/cache"
	"github.com/myflix/catalog-api/internal/config"
	"github.com/myflix/catalog-api/internal/logging"
	"github.com/myflix/catalog-api/internal/metrics"
	"github.com/myflix/catalog-api/internal/middleware"
	"github.com/myflix/catalog-api/internal/routes"
	"github.com/myflix/catalog-api/internal/store"
)

// @title myFlix Catalog API
// @version 1.0
// @description REST API for the myFlix movie catalog: authentication, movie browsing and favorites.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Missing or invalid configuration, including the signing secret, is
	// fatal here. Nothing below runs with a half-configured auth path.
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg)

	if err := metrics.Init(); err != nil {
		logger.WithError(err).Fatal("Failed to initialize metrics")
	}

	tracingShutdown, err := middleware.InitTracing(&cfg.Observability, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to setup tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingShutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shutdown tracing")
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:      "Catalog API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			logger.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
				"status": code,
			}).Error("Request error")

			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":     "INTERNAL_ERROR",
					"message":  "Internal server error",
					"trace_id": c.Get("X-Request-ID"),
				},
			})
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Requested-With,Idempotency-Key",
		MaxAge:       86400,
	}))
	app.Use(otelfiber.Middleware())
	app.Use(pprof.New())

	// DynamoDB-backed stores
	dynamoClient, err := initializeDynamoDB(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize DynamoDB client")
	}

	userStore := store.NewUserRepository(dynamoClient, cfg.DynamoDB.UsersTableName, logger)
	movieStore := store.NewMovieRepository(dynamoClient, cfg.DynamoDB.MoviesTableName, logger)

	// The token service carries the shared signing secret for both the
	// issuance and verification paths.
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TokenTTL, cfg.JWT.Issuer)

	middlewareManager, err := middleware.NewManager(cfg, logger, tokens, userStore)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize middleware manager")
	}
	defer middlewareManager.Close()

	var movieCache *cache.MovieCache
	if cfg.Cache.Enabled {
		movieCache = cache.NewMovieCache(middlewareManager.RedisClient, cfg.Cache.CatalogTTL, logger)
	}

	routes.Setup(app, cfg, logger, middlewareManager, tokens, userStore, movieStore, movieCache)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Gracefully shutting down...")
		if err := app.Shutdown(); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	logger.WithField("port", cfg.Server.Port).Info("Starting catalog API server")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}

func initializeDynamoDB(cfg *config.Config, logger *logrus.Logger) (*dynamodb.Client, error) {
	ctx := context.Background()

	var awsCfg aws.Config
	var err error

	if cfg.AWS.Profile != "" {
		// Local development with a named profile
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.DynamoDB.Region),
			awsconfig.WithSharedConfigProfile(cfg.AWS.Profile),
		)
	} else {
		// In-cluster credentials (IRSA or instance role)
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.DynamoDB.Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	logger.WithFields(logrus.Fields{
		"region":       cfg.DynamoDB.Region,
		"users_table":  cfg.DynamoDB.UsersTableName,
		"movies_table": cfg.DynamoDB.MoviesTableName,
	}).Info("DynamoDB client initialized")

	return dynamoClient, nil
}

package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/myflix/catalog-api/internal/cache"
)

// AdminHandler exposes operator endpoints for the cache layer
type AdminHandler struct {
	redisClient redis.UniversalClient
	movieCache  *cache.MovieCache
	logger      *logrus.Logger
}

func NewAdminHandler(redisClient redis.UniversalClient, movieCache *cache.MovieCache, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		redisClient: redisClient,
		movieCache:  movieCache,
		logger:      logger,
	}
}

// HealthCheck reports Redis connectivity
// @Summary Admin health check
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Healthy"
// @Failure 503 {object} map[string]interface{} "Unhealthy"
// @Router /admin/health [get]
func (a *AdminHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := a.redisClient.Ping(ctx).Err(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// GetStats returns Redis keyspace statistics
// @Summary Cache statistics
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Stats"
// @Router /admin/stats [get]
func (a *AdminHandler) GetStats(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dbSize, err := a.redisClient.DBSize(ctx).Result()
	if err != nil {
		a.logger.WithError(err).Error("Failed to read Redis stats")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to read cache stats",
			},
		})
	}

	info, _ := a.redisClient.Info(ctx, "memory").Result()

	return c.JSON(fiber.Map{
		"keys":      dbSize,
		"memory":    info,
		"timestamp": time.Now().UTC(),
	})
}

// FlushCache drops the cached movie catalog
// @Summary Flush catalog cache
// @Description Invalidate the cached movie catalog so the next read hits the store
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Flushed"
// @Router /admin/cache/flush [post]
func (a *AdminHandler) FlushCache(c *fiber.Ctx) error {
	if a.movieCache == nil {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Catalog caching is disabled",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.movieCache.Invalidate(ctx); err != nil {
		a.logger.WithError(err).Error("Failed to flush catalog cache")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to flush cache",
			},
		})
	}

	a.logger.Info("Catalog cache flushed")

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Catalog cache flushed",
	})
}

package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/myflix/catalog-api/internal/metrics"
	"github.com/myflix/catalog-api/internal/models"
)

const catalogKey = "catalog:movies"

// MovieCache keeps a short-lived copy of the full movie catalog in Redis so
// the browse endpoint does not scan DynamoDB on every request. A cache miss
// or Redis failure always falls through to the store.
type MovieCache struct {
	redisClient redis.UniversalClient
	ttl         time.Duration
	logger      *logrus.Logger
}

func NewMovieCache(redisClient redis.UniversalClient, ttl time.Duration, logger *logrus.Logger) *MovieCache {
	return &MovieCache{
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

// GetCatalog returns the cached catalog and whether it was present
func (m *MovieCache) GetCatalog(ctx context.Context) ([]models.Movie, bool) {
	payload, err := m.redisClient.Get(ctx, catalogKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			m.logger.WithError(err).Warn("Catalog cache read failed")
		}
		metrics.RecordCacheRequest("miss")
		return nil, false
	}

	var movies []models.Movie
	if err := json.Unmarshal(payload, &movies); err != nil {
		m.logger.WithError(err).Warn("Catalog cache entry corrupt, dropping")
		m.redisClient.Del(ctx, catalogKey)
		metrics.RecordCacheRequest("miss")
		return nil, false
	}

	metrics.RecordCacheRequest("hit")
	return movies, true
}

// SetCatalog stores the catalog with the configured TTL
func (m *MovieCache) SetCatalog(ctx context.Context, movies []models.Movie) {
	payload, err := json.Marshal(movies)
	if err != nil {
		m.logger.WithError(err).Error("Failed to marshal catalog for caching")
		return
	}

	if err := m.redisClient.Set(ctx, catalogKey, payload, m.ttl).Err(); err != nil {
		m.logger.WithError(err).Warn("Catalog cache write failed")
	}
}

// Invalidate drops the cached catalog
func (m *MovieCache) Invalidate(ctx context.Context) error {
	return m.redisClient.Del(ctx, catalogKey).Err()
}

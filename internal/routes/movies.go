package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/myflix/catalog-api/internal/cache"
	"github.com/myflix/catalog-api/internal/store"
	errs "github.com/myflix/catalog-api/pkg/errors"
)

// MovieHandler serves the read-only catalog endpoints
type MovieHandler struct {
	movies store.MovieStore
	cache  *cache.MovieCache
	logger *logrus.Logger
}

func NewMovieHandler(movies store.MovieStore, movieCache *cache.MovieCache, logger *logrus.Logger) *MovieHandler {
	return &MovieHandler{
		movies: movies,
		cache:  movieCache,
		logger: logger,
	}
}

// List returns the full movie catalog
// @Summary List movies
// @Description Return every movie in the catalog
// @Tags Movies
// @Produce json
// @Security Bearer
// @Success 200 {array} models.Movie
// @Router /movies [get]
func (h *MovieHandler) List(c *fiber.Ctx) error {
	ctx := c.Context()

	if h.cache != nil {
		if movies, ok := h.cache.GetCatalog(ctx); ok {
			return c.JSON(movies)
		}
	}

	movies, err := h.movies.List(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list movies")
		return errorResponse(c, errs.CodeInternalError, "Failed to list movies")
	}

	if h.cache != nil {
		h.cache.SetCatalog(ctx, movies)
	}

	return c.JSON(movies)
}

// GetByTitle returns a single movie
// @Summary Get movie by title
// @Tags Movies
// @Produce json
// @Security Bearer
// @Param title path string true "Movie title"
// @Success 200 {object} models.Movie
// @Failure 404 {object} errors.ErrorResponse "Movie not found"
// @Router /movies/{title} [get]
func (h *MovieHandler) GetByTitle(c *fiber.Ctx) error {
	movie, err := h.movies.FindByTitle(c.Context(), c.Params("title"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResponse(c, errs.CodeNotFound, "Movie not found")
		}
		h.logger.WithError(err).Error("Movie lookup failed")
		return errorResponse(c, errs.CodeInternalError, "Failed to fetch movie")
	}

	return c.JSON(movie)
}

// GetGenre returns a genre description
// @Summary Get genre
// @Description Return the description of a genre by name
// @Tags Movies
// @Produce json
// @Security Bearer
// @Param name path string true "Genre name"
// @Success 200 {object} models.Genre
// @Failure 404 {object} errors.ErrorResponse "Genre not found"
// @Router /genres/{name} [get]
func (h *MovieHandler) GetGenre(c *fiber.Ctx) error {
	movie, err := h.movies.FindByGenre(c.Context(), c.Params("name"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResponse(c, errs.CodeNotFound, "Genre not found")
		}
		h.logger.WithError(err).Error("Genre lookup failed")
		return errorResponse(c, errs.CodeInternalError, "Failed to fetch genre")
	}

	return c.JSON(movie.Genre)
}

// GetDirector returns director details
// @Summary Get director
// @Description Return a director's bio by name
// @Tags Movies
// @Produce json
// @Security Bearer
// @Param name path string true "Director name"
// @Success 200 {object} models.Director
// @Failure 404 {object} errors.ErrorResponse "Director not found"
// @Router /directors/{name} [get]
func (h *MovieHandler) GetDirector(c *fiber.Ctx) error {
	movie, err := h.movies.FindByDirector(c.Context(), c.Params("name"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResponse(c, errs.CodeNotFound, "Director not found")
		}
		h.logger.WithError(err).Error("Director lookup failed")
		return errorResponse(c, errs.CodeInternalError, "Failed to fetch director")
	}

	return c.JSON(movie.Director)
}

package routes

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/myflix/catalog-api/internal/auth"
	"github.com/myflix/catalog-api/internal/models"
	"github.com/myflix/catalog-api/internal/store"
	errs "github.com/myflix/catalog-api/pkg/errors"
)

// UserHandler serves the user profile and favorites endpoints. Routes are
// keyed by username; the store resolves the username to its record first.
//
// TODO: restrict profile mutation to the authenticated user once all
// clients stop sending cross-account requests.
type UserHandler struct {
	users  store.UserStore
	logger *logrus.Logger
}

func NewUserHandler(users store.UserStore, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// List returns all users
// @Summary List users
// @Description Return every registered user
// @Tags Users
// @Produce json
// @Security Bearer
// @Success 200 {array} models.User
// @Router /users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list users")
		return errorResponse(c, errs.CodeInternalError, "Failed to list users")
	}

	return c.JSON(users)
}

// Get returns a single user by username
// @Summary Get user
// @Tags Users
// @Produce json
// @Security Bearer
// @Param username path string true "Username"
// @Success 200 {object} models.User
// @Failure 404 {object} errors.ErrorResponse "User not found"
// @Router /users/{username} [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.FindByUsername(c.Context(), c.Params("username"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResponse(c, errs.CodeNotFound, "User not found")
		}
		h.logger.WithError(err).Error("User lookup failed")
		return errorResponse(c, errs.CodeInternalError, "Failed to fetch user")
	}

	return c.JSON(user)
}

// Update replaces a user's profile fields
// @Summary Update user
// @Description Replace username, password, email and birthday. The password is re-hashed.
// @Tags Users
// @Accept json
// @Produce json
// @Security Bearer
// @Param username path string true "Username"
// @Param request body models.UpdateUserRequest true "Replacement fields"
// @Success 200 {object} models.User
// @Failure 404 {object} errors.ErrorResponse "User not found"
// @Failure 422 {object} errors.ErrorResponse "Validation failed"
// @Router /users/{username} [put]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, errs.CodeBadRequest, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return errorResponse(c, errs.CodeValidationFailed, err.Error())
	}

	user, err := h.users.FindByUsername(c.Context(), c.Params("username"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResponse(c, errs.CodeNotFound, "User not found")
		}
		h.logger.WithError(err).Error("User lookup failed")
		return errorResponse(c, errs.CodeInternalError, "Failed to update user")
	}

	// The invariant: the stored password field only ever holds a hash
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		return errorResponse(c, errs.CodeInternalError, "Failed to process password")
	}

	fields := store.UserFields{
		Username:     req.Username,
		PasswordHash: passwordHash,
		Email:        req.Email,
	}
	if req.Birthday != "" {
		birthday, err := time.Parse("2006-01-02", req.Birthday)
		if err != nil {
			return errorResponse(c, errs.CodeValidationFailed, "birthday: must be a valid date")
		}
		fields.Birthday = &birthday
	}

	updated, err := h.users.UpdateFields(c.Context(), user.UserID, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResponse(c, errs.CodeNotFound, "User not found")
		}
		h.logger.WithError(err).Error("Failed to update user")
		return errorResponse(c, errs.CodeInternalError, "Failed to update user")
	}

	h.logger.WithField("user_id", updated.UserID).Info("User profile updated")

	return c.JSON(updated)
}

// Delete removes a user account
// @Summary Delete user
// @Tags Users
// @Produce json
// @Security Bearer
// @Param username path string true "Username"
// @Success 200 {object} map[string]interface{} "Deleted"
// @Failure 404 {object} errors.ErrorResponse "User not found"
// @Router /users/{username} [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	username := c.Params("username")

	user, err := h.users.FindByUsername(c.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResponse(c, errs.CodeNotFound, "User not found")
		}
		h.logger.WithError(err).Error("User lookup failed")
		return errorResponse(c, errs.CodeInternalError, "Failed to delete user")
	}

	if _, err := h.users.Remove(c.Context(), user.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResponse(c, errs.CodeNotFound, "User not found")
		}
		h.logger.WithError(err).Error("Failed to delete user")
		return errorResponse(c, errs.CodeInternalError, "Failed to delete user")
	}

	h.logger.WithFields(logrus.Fields{
		"user_id":  user.UserID,
		"username": username,
	}).Info("User deleted")

	return c.JSON(fiber.Map{
		"message": username + " was deleted",
	})
}

// AddFavorite appends a movie to the user's favorites
// @Summary Add favorite movie
// @Tags Users
// @Produce json
// @Security Bearer
// @Param username path string true "Username"
// @Param movieID path string true "Movie ID"
// @Success 200 {object} models.User
// @Failure 404 {object} errors.ErrorResponse "User not found"
// @Router /users/{username}/movies/{movieID} [post]
func (h *UserHandler) AddFavorite(c *fiber.Ctx) error {
	user, err := h.users.FindByUsername(c.Context(), c.Params("username"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResponse(c, errs.CodeNotFound, "User not found")
		}
		h.logger.WithError(err).Error("User lookup failed")
		return errorResponse(c, errs.CodeInternalError, "Failed to update favorites")
	}

	updated, err := h.users.PushToFavorites(c.Context(), user.UserID, c.Params("movieID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResponse(c, errs.CodeNotFound, "User not found")
		}
		h.logger.WithError(err).Error("Failed to add favorite")
		return errorResponse(c, errs.CodeInternalError, "Failed to update favorites")
	}

	return c.JSON(updated)
}

// RemoveFavorite removes a movie from the user's favorites
// @Summary Remove favorite movie
// @Tags Users
// @Produce json
// @Security Bearer
// @Param username path string true "Username"
// @Param movieID path string true "Movie ID"
// @Success 200 {object} models.User
// @Failure 404 {object} errors.ErrorResponse "User not found"
// @Router /users/{username}/movies/{movieID} [delete]
func (h *UserHandler) RemoveFavorite(c *fiber.Ctx) error {
	user, err := h.users.FindByUsername(c.Context(), c.Params("username"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResponse(c, errs.CodeNotFound, "User not found")
		}
		h.logger.WithError(err).Error("User lookup failed")
		return errorResponse(c, errs.CodeInternalError, "Failed to update favorites")
	}

	updated, err := h.users.PullFromFavorites(c.Context(), user.UserID, c.Params("movieID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResponse(c, errs.CodeNotFound, "User not found")
		}
		h.logger.WithError(err).Error("Failed to remove favorite")
		return errorResponse(c, errs.CodeInternalError, "Failed to update favorites")
	}

	return c.JSON(updated)
}

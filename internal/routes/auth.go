package routes

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/myflix/catalog-api/internal/auth"
	"github.com/myflix/catalog-api/internal/metrics"
	"github.com/myflix/catalog-api/internal/models"
	"github.com/myflix/catalog-api/internal/store"
	errs "github.com/myflix/catalog-api/pkg/errors"
)

// AuthHandler handles login and registration
type AuthHandler struct {
	authenticator *auth.Authenticator
	tokens        *auth.TokenService
	users         store.UserStore
	logger        *logrus.Logger
}

func NewAuthHandler(authenticator *auth.Authenticator, tokens *auth.TokenService, users store.UserStore, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		tokens:        tokens,
		users:         users,
		logger:        logger,
	}
}

// Login handles user login
// @Summary User login
// @Description Verify credentials and return the user with a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} errors.ErrorResponse "Invalid request"
// @Failure 401 {object} errors.ErrorResponse "Invalid credentials"
// @Failure 500 {object} errors.ErrorResponse "Internal error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, errs.CodeBadRequest, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return errorResponse(c, errs.CodeBadRequest, "Username and password are required")
	}

	user, err := h.authenticator.Authenticate(c.Context(), req.Username, req.Password)
	if err != nil {
		// One generic message for both unknown-user and wrong-password so a
		// caller cannot probe which usernames exist. Detail is logged by the
		// authenticator.
		switch {
		case errors.Is(err, auth.ErrUnknownUser):
			metrics.RecordAuthAttempt("unknown_user")
		case errors.Is(err, auth.ErrBadCredentials):
			metrics.RecordAuthAttempt("bad_credentials")
		default:
			metrics.RecordAuthAttempt("error")
			h.logger.WithError(err).Error("Credential verification failed")
			return errorResponse(c, errs.CodeInternalError, "Internal server error")
		}
		return errorResponse(c, errs.CodeUnauthenticated, "Invalid username or password")
	}

	token, expiresIn, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue token")
		return errorResponse(c, errs.CodeInternalError, "Failed to generate token")
	}

	metrics.RecordAuthAttempt("success")
	h.logger.WithFields(logrus.Fields{
		"user_id":  user.UserID,
		"username": user.Username,
	}).Info("User logged in")

	return c.JSON(models.AuthResponse{
		User:      user,
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Register handles user registration
// @Summary User registration
// @Description Register a new user account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration data"
// @Success 201 {object} models.User
// @Failure 400 {object} errors.ErrorResponse "Invalid request"
// @Failure 409 {object} errors.ErrorResponse "Username already exists"
// @Failure 422 {object} errors.ErrorResponse "Validation failed"
// @Failure 500 {object} errors.ErrorResponse "Internal error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, errs.CodeBadRequest, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return errorResponse(c, errs.CodeValidationFailed, err.Error())
	}

	existing, err := h.users.FindByUsername(c.Context(), req.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.WithError(err).Error("Username lookup failed")
		return errorResponse(c, errs.CodeInternalError, "Failed to create user")
	}
	if existing != nil {
		return errorResponse(c, errs.CodeUsernameExists, "Username already exists")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		return errorResponse(c, errs.CodeInternalError, "Failed to process password")
	}

	now := time.Now().UTC()
	user := &models.User{
		UserID:       uuid.New().String(),
		Username:     req.Username,
		PasswordHash: passwordHash,
		Email:        req.Email,
		Favorites:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if req.Birthday != "" {
		birthday, err := time.Parse("2006-01-02", req.Birthday)
		if err != nil {
			return errorResponse(c, errs.CodeValidationFailed, "birthday: must be a valid date")
		}
		user.Birthday = &birthday
	}

	if err := h.users.Create(c.Context(), user); err != nil {
		h.logger.WithError(err).Error("Failed to create user")
		return errorResponse(c, errs.CodeInternalError, "Failed to create user")
	}

	h.logger.WithFields(logrus.Fields{
		"user_id":  user.UserID,
		"username": user.Username,
	}).Info("User registered")

	return c.Status(fiber.StatusCreated).JSON(user)
}

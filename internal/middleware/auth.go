package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/myflix/catalog-api/internal/auth"
	"github.com/myflix/catalog-api/internal/metrics"
	"github.com/myflix/catalog-api/internal/models"
	"github.com/myflix/catalog-api/internal/store"
)

// AuthMiddleware gates protected routes behind a bearer token. Each request
// walks one path: extract token, check signature, check expiry, resolve the
// subject to a live user record. The first failing step terminates the
// request with 401 and the handler never runs.
type AuthMiddleware struct {
	tokens *auth.TokenService
	users  store.UserStore
	logger *logrus.Logger
}

func NewAuthMiddleware(tokens *auth.TokenService, users store.UserStore, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

// RequireAuth returns the bearer token gate
func (a *AuthMiddleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			metrics.RecordTokenVerification("missing")
			return a.unauthorizedError(c, "MISSING_AUTHORIZATION", "Authorization header is required")
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			metrics.RecordTokenVerification("invalid")
			return a.unauthorizedError(c, "INVALID_TOKEN_FORMAT", "Authorization header must be Bearer token")
		}

		tokenString := authHeader[len(bearerPrefix):]
		if tokenString == "" {
			metrics.RecordTokenVerification("missing")
			return a.unauthorizedError(c, "MISSING_TOKEN", "Token is required")
		}

		claims, err := a.tokens.Verify(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				metrics.RecordTokenVerification("expired")
				return a.unauthorizedError(c, "TOKEN_EXPIRED", "Token has expired")
			}
			metrics.RecordTokenVerification("invalid")
			a.logger.WithError(err).WithField("path", c.Path()).Debug("Token validation failed")
			return a.unauthorizedError(c, "INVALID_TOKEN", "Token validation failed")
		}

		// The token may outlive the account. A deleted subject means the
		// bearer no longer identifies anyone.
		user, err := a.users.FindByID(c.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				metrics.RecordTokenVerification("user_missing")
				a.logger.WithField("user_id", claims.UserID).Warn("Token subject no longer exists")
				return a.unauthorizedError(c, "INVALID_TOKEN", "Token validation failed")
			}
			a.logger.WithError(err).Error("User lookup failed during token verification")
			return a.unauthorizedError(c, "INVALID_TOKEN", "Token validation failed")
		}

		metrics.RecordTokenVerification("success")

		c.Locals("user", user)
		c.Locals("user_id", user.UserID)
		c.Locals("username", user.Username)

		return c.Next()
	}
}

// unauthorizedError returns a standardized unauthorized error response
func (a *AuthMiddleware) unauthorizedError(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": fiber.Map{
			"code":     code,
			"message":  message,
			"trace_id": c.Get("X-Request-ID"),
		},
	})
}

// CurrentUser extracts the resolved user record from context
func CurrentUser(c *fiber.Ctx) *models.User {
	if user, ok := c.Locals("user").(*models.User); ok {
		return user
	}
	return nil
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals("user_id").(string); ok {
		return userID
	}
	return ""
}

// GetUsername extracts the authenticated username from context
func GetUsername(c *fiber.Ctx) string {
	if username, ok := c.Locals("username").(string); ok {
		return username
	}
	return ""
}

package middleware_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myflix/catalog-api/internal/auth"
	"github.com/myflix/catalog-api/internal/middleware"
	"github.com/myflix/catalog-api/internal/models"
	"github.com/myflix/catalog-api/internal/store"
)

const (
	testSecret = "test-secret-at-least-16-bytes"
	testTTL    = 168 * time.Hour
	testIssuer = "myflix-catalog-api"
)

type fakeUserStore struct {
	byID map[string]*models.User
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	for _, user := range f.byID {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := f.byID[id]; ok {
		return user, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.byID[user.UserID] = user
	return nil
}

func (f *fakeUserStore) UpdateFields(_ context.Context, id string, fields store.UserFields) (*models.User, error) {
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) Remove(_ context.Context, id string) (*models.User, error) {
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) PushToFavorites(_ context.Context, id, movieID string) (*models.User, error) {
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) PullFromFavorites(_ context.Context, id, movieID string) (*models.User, error) {
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) List(_ context.Context) ([]models.User, error) {
	return nil, nil
}

// newTestApp builds a fiber app with a single protected route that echoes
// the identity the middleware resolved
func newTestApp(tokens *auth.TokenService, users store.UserStore) *fiber.App {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	authMiddleware := middleware.NewAuthMiddleware(tokens, users, logger)

	app := fiber.New()
	app.Get("/protected", authMiddleware.RequireAuth(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":  middleware.GetUserID(c),
			"username": middleware.GetUsername(c),
		})
	})
	return app
}

func seededStore() (*fakeUserStore, *models.User) {
	user := &models.User{
		UserID:   "user-1",
		Username: "alice01",
		Email:    "a@example.com",
	}
	return &fakeUserStore{byID: map[string]*models.User{user.UserID: user}}, user
}

func TestRequireAuth_ValidToken(t *testing.T) {
	users, user := seededStore()
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer)
	app := newTestApp(tokens, users)

	token, _, err := tokens.Issue(user)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	users, _ := seededStore()
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer)
	app := newTestApp(tokens, users)

	req := httptest.NewRequest("GET", "/protected", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuth_NotBearer(t *testing.T) {
	users, _ := seededStore()
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer)
	app := newTestApp(tokens, users)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Basic YWxpY2U6c2VjcmV0")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuth_EmptyToken(t *testing.T) {
	users, _ := seededStore()
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer)
	app := newTestApp(tokens, users)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer ")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	users, user := seededStore()
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer)
	app := newTestApp(tokens, users)

	foreign := auth.NewTokenService("another-secret-16-bytes-long", testTTL, testIssuer)
	token, _, err := foreign.Issue(user)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	users, user := seededStore()

	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer).
		WithClock(func() time.Time { return issuedAt })

	token, _, err := tokens.Issue(user)
	require.NoError(t, err)

	// 8 days later the token has outlived its 7 day window
	tokens.WithClock(func() time.Time { return issuedAt.Add(8 * 24 * time.Hour) })
	app := newTestApp(tokens, users)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuth_DeletedUser(t *testing.T) {
	users, user := seededStore()
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer)
	app := newTestApp(tokens, users)

	token, _, err := tokens.Issue(user)
	require.NoError(t, err)

	// Account removed after the token was issued
	delete(users.byID, user.UserID)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

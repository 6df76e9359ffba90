package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myflix/catalog-api/internal/auth"
	"github.com/myflix/catalog-api/internal/middleware"
	"github.com/myflix/catalog-api/internal/models"
	"github.com/myflix/catalog-api/internal/routes"
	"github.com/myflix/catalog-api/internal/store"
)

const (
	testSecret = "test-secret-at-least-16-bytes"
	testTTL    = 168 * time.Hour
	testIssuer = "myflix-catalog-api"
)

// memoryUserStore is an in-memory UserStore for handler tests
type memoryUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User // keyed by user_id
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[string]*models.User{}}
}

func (m *memoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memoryUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, store.ErrNotFound
}

func (m *memoryUserStore) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.users[user.UserID] = &copied
	return nil
}

func (m *memoryUserStore) UpdateFields(_ context.Context, id string, fields store.UserFields) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	user.Username = fields.Username
	user.PasswordHash = fields.PasswordHash
	user.Email = fields.Email
	user.Birthday = fields.Birthday
	user.UpdatedAt = time.Now().UTC()
	copied := *user
	return &copied, nil
}

func (m *memoryUserStore) Remove(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(m.users, id)
	return user, nil
}

func (m *memoryUserStore) PushToFavorites(_ context.Context, id, movieID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	user.Favorites = append(user.Favorites, movieID)
	copied := *user
	return &copied, nil
}

func (m *memoryUserStore) PullFromFavorites(_ context.Context, id, movieID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	kept := make([]string, 0, len(user.Favorites))
	for _, fav := range user.Favorites {
		if fav != movieID {
			kept = append(kept, fav)
		}
	}
	user.Favorites = kept
	copied := *user
	return &copied, nil
}

func (m *memoryUserStore) List(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, *user)
	}
	return out, nil
}

// newAuthTestApp wires the auth handlers and the bearer gate against an
// in-memory store, the same topology the server uses minus Redis and
// DynamoDB
func newAuthTestApp(users store.UserStore, tokens *auth.TokenService) *fiber.App {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	authenticator := auth.NewAuthenticator(users, logger)
	authHandler := routes.NewAuthHandler(authenticator, tokens, users, logger)
	userHandler := routes.NewUserHandler(users, logger)
	authMiddleware := middleware.NewAuthMiddleware(tokens, users, logger)

	app := fiber.New()
	app.Post("/auth/register", authHandler.Register)
	app.Post("/auth/login", authHandler.Login)

	protected := app.Group("", authMiddleware.RequireAuth())
	protected.Get("/users/:username", userHandler.Get)
	protected.Post("/users/:username/movies/:movieID", userHandler.AddFavorite)
	protected.Delete("/users/:username/movies/:movieID", userHandler.RemoveFavorite)

	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	resp.Body.Close()
}

func registerAlice(t *testing.T, app *fiber.App) {
	t.Helper()
	resp := postJSON(t, app, "/auth/register", models.RegisterRequest{
		Username: "alice01",
		Password: "Secret123",
		Email:    "a@example.com",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestRegisterLoginAndAccess(t *testing.T) {
	users := newMemoryUserStore()
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer)
	app := newAuthTestApp(users, tokens)

	registerAlice(t, app)

	// The stored record must hold a hash, never the plaintext
	stored, err := users.FindByUsername(context.Background(), "alice01")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)

	resp := postJSON(t, app, "/auth/login", models.LoginRequest{
		Username: "alice01",
		Password: "Secret123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var authResp models.AuthResponse
	decodeBody(t, resp, &authResp)
	require.NotEmpty(t, authResp.Token)
	assert.Equal(t, "alice01", authResp.User.Username)
	assert.Equal(t, int(testTTL.Seconds()), authResp.ExpiresIn)

	// The token opens the protected surface and resolves back to alice
	req := httptest.NewRequest("GET", "/users/alice01", nil)
	req.Header.Set("Authorization", "Bearer "+authResp.Token)

	getResp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, getResp.StatusCode)

	var fetched models.User
	decodeBody(t, getResp, &fetched)
	assert.Equal(t, "alice01", fetched.Username)
	assert.Equal(t, "a@example.com", fetched.Email)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := newMemoryUserStore()
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer)
	app := newAuthTestApp(users, tokens)

	registerAlice(t, app)

	resp := postJSON(t, app, "/auth/login", models.LoginRequest{
		Username: "alice01",
		Password: "Secret124",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_UnknownUserSameMessage(t *testing.T) {
	users := newMemoryUserStore()
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer)
	app := newAuthTestApp(users, tokens)

	registerAlice(t, app)

	wrongPass := postJSON(t, app, "/auth/login", models.LoginRequest{
		Username: "alice01",
		Password: "wrong",
	})
	require.Equal(t, fiber.StatusUnauthorized, wrongPass.StatusCode)

	noSuchUser := postJSON(t, app, "/auth/login", models.LoginRequest{
		Username: "nobody99",
		Password: "wrong",
	})
	require.Equal(t, fiber.StatusUnauthorized, noSuchUser.StatusCode)

	// Both failure legs carry the same body so callers cannot probe for
	// registered usernames
	var bodyA, bodyB map[string]interface{}
	decodeBody(t, wrongPass, &bodyA)
	decodeBody(t, noSuchUser, &bodyB)
	assert.Equal(t, bodyA["error"], bodyB["error"])
}

func TestLogin_MissingFields(t *testing.T) {
	users := newMemoryUserStore()
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer)
	app := newAuthTestApp(users, tokens)

	resp := postJSON(t, app, "/auth/login", models.LoginRequest{Username: "alice01"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	users := newMemoryUserStore()
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer)
	app := newAuthTestApp(users, tokens)

	registerAlice(t, app)

	resp := postJSON(t, app, "/auth/register", models.RegisterRequest{
		Username: "alice01",
		Password: "Another456",
		Email:    "b@example.com",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRegister_ValidationFailures(t *testing.T) {
	users := newMemoryUserStore()
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer)
	app := newAuthTestApp(users, tokens)

	tests := []struct {
		name string
		req  models.RegisterRequest
	}{
		{
			name: "Short username",
			req:  models.RegisterRequest{Username: "al", Password: "Secret123", Email: "a@example.com"},
		},
		{
			name: "Non-alphanumeric username",
			req:  models.RegisterRequest{Username: "alice 01", Password: "Secret123", Email: "a@example.com"},
		},
		{
			name: "Bad email",
			req:  models.RegisterRequest{Username: "alice01", Password: "Secret123", Email: "not-an-email"},
		},
		{
			name: "Empty password",
			req:  models.RegisterRequest{Username: "alice01", Password: "", Email: "a@example.com"},
		},
		{
			name: "Bad birthday",
			req:  models.RegisterRequest{Username: "alice01", Password: "Secret123", Email: "a@example.com", Birthday: "01-02-1990"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, app, "/auth/register", tt.req)
			assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
		})
	}
}

func TestExpiredTokenRejectedOnProtectedRoute(t *testing.T) {
	users := newMemoryUserStore()

	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer).
		WithClock(func() time.Time { return issuedAt })
	app := newAuthTestApp(users, tokens)

	registerAlice(t, app)

	resp := postJSON(t, app, "/auth/login", models.LoginRequest{
		Username: "alice01",
		Password: "Secret123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var authResp models.AuthResponse
	decodeBody(t, resp, &authResp)

	// Same secret, same token, 8 days later
	tokens.WithClock(func() time.Time { return issuedAt.Add(8 * 24 * time.Hour) })

	req := httptest.NewRequest("GET", "/users/alice01", nil)
	req.Header.Set("Authorization", "Bearer "+authResp.Token)

	getResp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, getResp.StatusCode)
}

func TestFavorites_AddAndRemove(t *testing.T) {
	users := newMemoryUserStore()
	tokens := auth.NewTokenService(testSecret, testTTL, testIssuer)
	app := newAuthTestApp(users, tokens)

	registerAlice(t, app)

	resp := postJSON(t, app, "/auth/login", models.LoginRequest{
		Username: "alice01",
		Password: "Secret123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var authResp models.AuthResponse
	decodeBody(t, resp, &authResp)

	do := func(method, path string) *http.Response {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+authResp.Token)
		r, err := app.Test(req)
		require.NoError(t, err)
		return r
	}

	addResp := do("POST", "/users/alice01/movies/movie-1")
	require.Equal(t, fiber.StatusOK, addResp.StatusCode)

	var afterAdd models.User
	decodeBody(t, addResp, &afterAdd)
	assert.Equal(t, []string{"movie-1"}, afterAdd.Favorites)

	removeResp := do("DELETE", "/users/alice01/movies/movie-1")
	require.Equal(t, fiber.StatusOK, removeResp.StatusCode)

	var afterRemove models.User
	decodeBody(t, removeResp, &afterRemove)
	assert.Empty(t, afterRemove.Favorites)
}

package auth_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myflix/catalog-api/internal/auth"
	"github.com/myflix/catalog-api/internal/models"
	"github.com/myflix/catalog-api/internal/store"
)

// fakeUserStore serves canned user records keyed by username
type fakeUserStore struct {
	users map[string]*models.User
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	if user, ok := f.users[username]; ok {
		return user, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	for _, user := range f.users {
		if user.UserID == id {
			return user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.users[user.Username] = user
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

func newFakeStoreWithUser(t *testing.T, username, password string) *fakeUserStore {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	return &fakeUserStore{
		users: map[string]*models.User{
			username: {
				UserID:       "user-1",
				Username:     username,
				PasswordHash: hash,
				Email:        "a@example.com",
			},
		},
	}
}

func TestAuthenticator_Success(t *testing.T) {
	users := newFakeStoreWithUser(t, "alice01", "Secret123")
	authenticator := auth.NewAuthenticator(users, logrus.New())

	user, err := authenticator.Authenticate(context.Background(), "alice01", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice01", user.Username)
	assert.Equal(t, "user-1", user.UserID)
}

func TestAuthenticator_UnknownUser(t *testing.T) {
	users := newFakeStoreWithUser(t, "alice01", "Secret123")
	authenticator := auth.NewAuthenticator(users, logrus.New())

	user, err := authenticator.Authenticate(context.Background(), "nobody99", "Secret123")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, auth.ErrUnknownUser)
}

func TestAuthenticator_WrongPassword(t *testing.T) {
	users := newFakeStoreWithUser(t, "alice01", "Secret123")
	authenticator := auth.NewAuthenticator(users, logrus.New())

	user, err := authenticator.Authenticate(context.Background(), "alice01", "WrongPass")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, auth.ErrBadCredentials)
}

func TestAuthenticator_ExactUsernameMatch(t *testing.T) {
	users := newFakeStoreWithUser(t, "alice01", "Secret123")
	authenticator := auth.NewAuthenticator(users, logrus.New())

	_, err := authenticator.Authenticate(context.Background(), "Alice01", "Secret123")
	assert.ErrorIs(t, err, auth.ErrUnknownUser)
}

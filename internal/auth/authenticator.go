package auth

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/myflix/catalog-api/internal/models"
	"github.com/myflix/catalog-api/internal/store"
)

var (
	// ErrUnknownUser is returned when no record matches the submitted username
	ErrUnknownUser = errors.New("auth: unknown user")

	// ErrBadCredentials is returned when the password does not verify
	ErrBadCredentials = errors.New("auth: bad credentials")
)

// Authenticator decides whether a submitted (username, password) pair
// identifies a valid, known user. It performs a single store lookup and a
// hash comparison and never mutates the store, so it is safe for concurrent
// use across requests.
type Authenticator struct {
	users  store.UserStore
	logger *logrus.Logger
}

func NewAuthenticator(users store.UserStore, logger *logrus.Logger) *Authenticator {
	return &Authenticator{
		users:  users,
		logger: logger,
	}
}

// Authenticate looks up the user by exact username and verifies the
// password against the stored hash. Callers must map both failure modes to
// one generic client response; the distinction is for server-side logs only.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			a.logger.WithField("username", username).Warn("Login attempt for unknown user")
			return nil, ErrUnknownUser
		}
		return nil, err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedPassword) {
			a.logger.WithField("username", username).Warn("Login attempt with wrong password")
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	return user, nil
}

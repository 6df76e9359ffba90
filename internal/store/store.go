package store

import (
	"context"
	"errors"
	"time"

	"github.com/myflix/catalog-api/internal/models"
)

// ErrNotFound is returned when a lookup matches no record
var ErrNotFound = errors.New("store: record not found")

// UserFields are the mutable attributes of a user record. The password
// arrives here already hashed; the store never sees plaintext.
type UserFields struct {
	Username     string
	PasswordHash string
	Email        string
	Birthday     *time.Time
}

// UserStore is the credential store consumed by the authentication flow and
// the user endpoints.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id string, fields UserFields) (*models.User, error)
	Remove(ctx context.Context, id string) (*models.User, error)
	PushToFavorites(ctx context.Context, id, movieID string) (*models.User, error)
	PullFromFavorites(ctx context.Context, id, movieID string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// MovieStore exposes the read-only catalog
type MovieStore interface {
	List(ctx context.Context) ([]models.Movie, error)
	FindByTitle(ctx context.Context, title string) (*models.Movie, error)
	FindByGenre(ctx context.Context, name string) (*models.Movie, error)
	FindByDirector(ctx context.Context, name string) (*models.Movie, error)
}

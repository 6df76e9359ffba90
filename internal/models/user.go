package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// User represents a registered account. PasswordHash always holds a bcrypt
// hash, never plaintext, and is excluded from JSON output.
type User struct {
	UserID       string     `json:"user_id" dynamodbav:"user_id"` // Primary Key
	Username     string     `json:"username" dynamodbav:"username"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Email        string     `json:"email" dynamodbav:"email"`
	Birthday     *time.Time `json:"birthday,omitempty" dynamodbav:"birthday,omitempty"`
	Favorites    []string   `json:"favorite_movies" dynamodbav:"favorites"` // ordered, duplicates allowed
	CreatedAt    time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" dynamodbav:"updated_at"`
}

// LoginRequest represents login request payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks that both credential fields are present
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterRequest represents registration request payload
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Birthday string `json:"birthday,omitempty"` // YYYY-MM-DD
}

// Validate applies the account field rules: alphanumeric username of at
// least five characters, a non-empty password, a well-formed email, and an
// optional ISO date birthday.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(5, 30), is.Alphanumeric),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Birthday, validation.Date("2006-01-02")),
	)
}

// UpdateUserRequest carries the replacement fields for a profile update.
// The password is re-hashed before it reaches the store.
type UpdateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Birthday string `json:"birthday,omitempty"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(5, 30), is.Alphanumeric),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Birthday, validation.Date("2006-01-02")),
	)
}

// AuthResponse represents a successful login: the resolved user plus the
// bearer token the client presents on subsequent requests.
type AuthResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

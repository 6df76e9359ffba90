package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myflix/catalog-api/internal/auth"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "Secret123",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := auth.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)

			err = auth.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestHashPassword_SaltedEncoding(t *testing.T) {
	// Same input must never produce the same encoding twice
	hash1, err := auth.HashPassword("Secret123")
	require.NoError(t, err)

	hash2, err := auth.HashPassword("Secret123")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)

	assert.NoError(t, auth.ComparePasswordAndHash("Secret123", hash1))
	assert.NoError(t, auth.ComparePasswordAndHash("Secret123", hash2))
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "Secret123"
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  error
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
		},
		{
			name:     "Wrong password",
			password: "wrongPassword",
			hash:     hash,
			wantErr:  auth.ErrMismatchedPassword,
		},
		{
			name:     "Invalid hash",
			password: password,
			hash:     "not-a-bcrypt-hash",
			wantErr:  assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ComparePasswordAndHash(tt.password, tt.hash)

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)
			if tt.wantErr == auth.ErrMismatchedPassword {
				assert.ErrorIs(t, err, auth.ErrMismatchedPassword)
			}
		})
	}
}

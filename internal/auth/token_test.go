package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myflix/catalog-api/internal/auth"
	"github.com/myflix/catalog-api/internal/models"
)

const (
	testSecret = "test-secret-at-least-16-bytes"
	testTTL    = 168 * time.Hour // 7 days
	testIssuer = "myflix-catalog-api"
)

func testUser() *models.User {
	return &models.User{
		UserID:   "user-1",
		Username: "alice01",
		Email:    "a@example.com",
	}
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := auth.NewTokenService(testSecret, testTTL, testIssuer)
	user := testUser()

	token, expiresIn, err := svc.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, int(testTTL.Seconds()), expiresIn)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice01", claims.Subject)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestTokenService_TokensDiffer(t *testing.T) {
	// Issued-at moves between calls, so two tokens for the same user must
	// not be identical
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := auth.NewTokenService(testSecret, testTTL, testIssuer)

	svc.WithClock(func() time.Time { return clock })
	token1, _, err := svc.Issue(testUser())
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return clock.Add(time.Second) })
	token2, _, err := svc.Issue(testUser())
	require.NoError(t, err)

	assert.NotEqual(t, token1, token2)
}

func TestTokenService_ExpiredTokenRejected(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := auth.NewTokenService(testSecret, testTTL, testIssuer).
		WithClock(func() time.Time { return issuedAt })

	token, _, err := svc.Issue(testUser())
	require.NoError(t, err)

	// 8 days later the signature is still valid but the token is not
	svc.WithClock(func() time.Time { return issuedAt.Add(8 * 24 * time.Hour) })

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestTokenService_TokenValidJustBeforeExpiry(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := auth.NewTokenService(testSecret, testTTL, testIssuer).
		WithClock(func() time.Time { return issuedAt })

	token, _, err := svc.Issue(testUser())
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return issuedAt.Add(testTTL - time.Minute) })

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice01", claims.Subject)
}

func TestTokenService_WrongSecretRejected(t *testing.T) {
	issuer := auth.NewTokenService(testSecret, testTTL, testIssuer)
	verifier := auth.NewTokenService("another-secret-16-bytes-long", testTTL, testIssuer)

	token, _, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestTokenService_GarbageRejected(t *testing.T) {
	svc := auth.NewTokenService(testSecret, testTTL, testIssuer)

	for _, token := range []string{"", "not-a-jwt", "aaaa.bbbb.cccc"} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	}
}

func TestTokenService_TamperedTokenRejected(t *testing.T) {
	svc := auth.NewTokenService(testSecret, testTTL, testIssuer)

	token, _, err := svc.Issue(testUser())
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rimshield/internal/core/apperror"
	"rimshield/internal/core/id"
)

type mockRepo struct {
	users map[string]*AdminUser
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*AdminUser, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, apperror.NewNotFound("admin user", email)
	}
	return u, nil
}

func newTestService(t *testing.T) (*Service, *JWTService) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mockRepo{users: map[string]*AdminUser{
		"admin@rimshield.nl": {
			ID:           id.New(),
			Email:        "admin@rimshield.nl",
			Name:         "Admin",
			PasswordHash: string(hash),
		},
	}}
	jwtService := NewJWTService(DefaultJWTConfig("test-secret"))
	return NewService(repo, jwtService), jwtService
}

func TestLogin(t *testing.T) {
	svc, jwtService := newTestService(t)

	token, err := svc.Login(context.Background(), Credentials{
		Email:    "admin@rimshield.nl",
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.True(t, token.ExpiresAt.After(time.Now()))

	// The issued token round-trips through validation.
	uc, err := jwtService.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin@rimshield.nl", uc.Email)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), Credentials{
		Email:    "admin@rimshield.nl",
		Password: "wrong",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), Credentials{
		Email:    "nobody@rimshield.nl",
		Password: "s3cret",
	})
	require.Error(t, err)

	// Indistinguishable from a wrong password.
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
	assert.Equal(t, "invalid email or password", appErr.Message)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))

	token, _, err := issuer.GenerateAccessToken("user-1", "admin@rimshield.nl")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	jwtService := NewJWTService(DefaultJWTConfig("test-secret"))

	_, err := jwtService.ValidateToken("not.a.token")
	assert.Error(t, err)
}

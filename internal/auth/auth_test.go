package auth

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(NewMemoryStore(), "test-secret", time.Hour)
}

func TestSignupAndLogin(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	user, token, err := m.Signup(ctx, "Alice@Example.com", "correct horse battery")
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.True(t, strings.HasPrefix(user.ID, "usr_"))
	assert.Equal(t, "alice@example.com", user.Email) // lowered
	assert.Equal(t, "user", user.Role)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)

	got, loginToken, err := m.Login(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, loginToken)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	_, _, err := m.Signup(ctx, "bob@example.com", "password123")
	require.NoError(t, err)

	_, _, err = m.Signup(ctx, "BOB@example.com", "different456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_BadCredentials(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	_, _, err := m.Signup(ctx, "carol@example.com", "password123")
	require.NoError(t, err)

	_, _, err = m.Login(ctx, "carol@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// unknown user yields the same error as a wrong password
	_, _, err = m.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyToken(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	user, token, err := m.Signup(ctx, "dave@example.com", "password123")
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, "dave@example.com", claims.Email)
	assert.Equal(t, "carbonrisk", claims.Issuer)
}

func TestVerifyToken_Invalid(t *testing.T) {
	m := newTestManager()

	_, err := m.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// token signed with a different secret
	other := NewManager(NewMemoryStore(), "other-secret", time.Hour)
	user, token, err := other.Signup(context.Background(), "eve@example.com", "password123")
	require.NoError(t, err)
	require.NotNil(t, user)

	_, err = m.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Expired(t *testing.T) {
	m := NewManager(NewMemoryStore(), "test-secret", -time.Minute)

	_, token, err := m.Signup(context.Background(), "frank@example.com", "password123")
	require.NoError(t, err)

	_, err = m.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashNotSerialized(t *testing.T) {
	m := newTestManager()

	user, _, err := m.Signup(context.Background(), "grace@example.com", "password123")
	require.NoError(t, err)

	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
	assert.NotContains(t, string(data), user.PasswordHash)
}

package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(ttl time.Duration) *Manager {
	return NewManager(TokenConfig{Secret: []byte("test-secret"), TTL: ttl})
}

func TestGenerateAndValidate(t *testing.T) {
	mgr := testManager(time.Hour)

	token, err := mgr.Generate(User{
		ID:    "64f000000000000000000001",
		Name:  "Test User",
		Email: "test@example.com",
		Role:  "student",
		Plan:  "free",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := mgr.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "64f000000000000000000001", claims.UserID)
	assert.Equal(t, "Test User", claims.Name)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, "free", claims.Plan)
	assert.Equal(t, "synapaxon-api", claims.Issuer)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := testManager(time.Hour).Generate(User{ID: "u1", Role: "student"})
	require.NoError(t, err)

	other := NewManager(TokenConfig{Secret: []byte("different-secret")})
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	mgr := testManager(-time.Minute)
	token, err := mgr.Generate(User{ID: "u1", Role: "student"})
	require.NoError(t, err)

	_, err = mgr.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := testManager(time.Hour).Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsContextRoundTrip(t *testing.T) {
	claims := &Claims{UserID: "u1", Role: "admin"}
	ctx := IntoContext(context.Background(), claims)

	got := FromContext(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "admin", got.Role)

	assert.Nil(t, FromContext(context.Background()))
}

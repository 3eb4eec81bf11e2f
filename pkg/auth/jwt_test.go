package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc, err := NewJWTService("test-secret", 1)
	require.NoError(t, err)

	token, err := svc.GenerateToken(7, "student@test.com", RoleStudent)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "student@test.com", claims.Email)
	assert.Equal(t, RoleStudent, claims.Role)
	assert.NotEmpty(t, claims.ID, "token carries a unique jti")
}

func TestJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService("", 1)
	assert.Error(t, err)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	issuer, err := NewJWTService("secret-a", 1)
	require.NoError(t, err)
	verifier, err := NewJWTService("secret-b", 1)
	require.NoError(t, err)

	token, err := issuer.GenerateToken(7, "", RoleInstructor)
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc, err := NewJWTService("test-secret", 1)
	require.NoError(t, err)

	_, err = svc.ParseToken("not.a.token")
	assert.Error(t, err)
}

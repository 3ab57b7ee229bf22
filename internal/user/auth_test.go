package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2secret")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2secret", hash)

	assert.True(t, CheckPasswordHash("hunter2secret", hash))
	assert.False(t, CheckPasswordHash("wrong-password", hash))
}

func TestJWTRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT(42, string(RoleAdmin), "dana@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "dana@example.com", claims.Email)
	assert.Equal(t, string(RoleAdmin), claims.Role)
}

func TestParseJWT_RejectsTampering(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT(42, string(RoleUser), "dana@example.com")
	require.NoError(t, err)

	t.Run("WrongSecret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "another-secret")
		_, err := ParseJWT(token)
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := ParseJWT("not.a.token")
		assert.Error(t, err)
	})
}

func TestGenerateJWT_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := GenerateJWT(1, string(RoleUser), "dana@example.com")
	assert.Error(t, err)
}

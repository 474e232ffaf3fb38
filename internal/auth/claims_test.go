package auth

import (
	"testing"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestDecodeClaims(t *testing.T) {
	t.Run("admin role marker", func(t *testing.T) {
		claims := DecodeClaims(signedToken(t, jwt.MapClaims{"role": "admin", "sub": "ana"}))
		require.NotNil(t, claims)
		assert.True(t, claims.IsAdmin())
		assert.Equal(t, "ana", claims.SubjectHint())
	})

	t.Run("username hint without subject", func(t *testing.T) {
		claims := DecodeClaims(signedToken(t, jwt.MapClaims{"username": "mila"}))
		require.NotNil(t, claims)
		assert.False(t, claims.IsAdmin())
		assert.Equal(t, "mila", claims.SubjectHint())
	})

	t.Run("subject wins over username", func(t *testing.T) {
		claims := DecodeClaims(signedToken(t, jwt.MapClaims{"sub": "id-1", "username": "mila"}))
		require.NotNil(t, claims)
		assert.Equal(t, "id-1", claims.SubjectHint())
	})

	t.Run("expired token still decodes", func(t *testing.T) {
		claims := DecodeClaims(signedToken(t, jwt.MapClaims{"sub": "old", "exp": 1}))
		require.NotNil(t, claims)
		assert.Equal(t, "old", claims.SubjectHint())
	})

	malformed := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a jwt", "opaque-session-token"},
		{"two segments", "aGVhZGVy.cGF5bG9hZA"},
		{"garbage payload", "eyJhbGciOiJIUzI1NiJ9.%%%%.sig"},
	}
	for _, tc := range malformed {
		t.Run("malformed "+tc.name, func(t *testing.T) {
			assert.Nil(t, DecodeClaims(tc.token))
		})
	}
}

func TestClaimsNilReceiver(t *testing.T) {
	var claims *Claims
	assert.False(t, claims.IsAdmin())
	assert.Empty(t, claims.SubjectHint())
}

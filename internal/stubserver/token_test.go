package stubserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 5)

	token, err := tm.GenerateToken("eko-pokret", "eko-pokret", "organisation")
	require.NoError(t, err)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "eko-pokret", claims.Subject)
	assert.Equal(t, "organisation", claims.Role)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	token, err := NewTokenManager("secret-a", 5).GenerateToken("ana", "ana", "user")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 5)
	tm.ttl = -tm.ttl

	token, err := tm.GenerateToken("ana", "ana", "user")
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

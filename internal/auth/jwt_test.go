package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelinof/chatrelay/internal/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret")

	token, err := tokens.GenerateToken("id-1", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "id-1", claims.UserID)
}

func TestTokenRejectedByOtherSecret(t *testing.T) {
	token, err := auth.NewTokenManager("secret-a").GenerateToken("id-1", "alice")
	require.NoError(t, err)

	_, err = auth.NewTokenManager("secret-b").ValidateToken(token)
	require.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	_, err := auth.NewTokenManager("test-secret").ValidateToken("not-a-token")
	require.Error(t, err)
}

func TestTokenWithoutUsernameRejected(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret")
	token, err := tokens.GenerateToken("id-1", "")
	require.NoError(t, err)

	_, err = tokens.ValidateToken(token)
	require.Error(t, err)
}

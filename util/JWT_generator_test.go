package util

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestKeys(t *testing.T) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	SetRSAKeys(key, &key.PublicKey)
}

func TestGenerateTokens_AccessRoundTrip(t *testing.T) {
	setupTestKeys(t)
	userID := uuid.New()

	pair, err := GenerateTokens(userID, []string{"user", "seller"})
	require.NoError(t, err)

	claims, err := ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.ElementsMatch(t, []string{"user", "seller"}, claims.Roles)

	got, err := ExtractUserIDFromToken("Bearer " + pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestGenerateTokens_RefreshRoundTrip(t *testing.T) {
	setupTestKeys(t)
	userID := uuid.New()

	pair, err := GenerateTokens(userID, nil)
	require.NoError(t, err)

	gotUser, gotRefresh, err := ParseRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, pair.RefreshID, gotRefresh)

	_, err = ParseAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token is not accepted as access token")
}

func TestParseAccessToken_WrongKey(t *testing.T) {
	setupTestKeys(t)
	pair, err := GenerateTokens(uuid.New(), nil)
	require.NoError(t, err)

	setupTestKeys(t)
	_, err = ParseAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractUserIDFromToken_MissingBearer(t *testing.T) {
	_, err := ExtractUserIDFromToken("")
	assert.ErrorIs(t, err, ErrMissingBearer)

	_, err = ExtractUserIDFromToken("Basic abc")
	assert.ErrorIs(t, err, ErrMissingBearer)
}

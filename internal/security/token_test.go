package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	signed, err := IssueToken("secret", 42, "editor", TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	claims, err := ParseToken(signed, "secret", TokenTypeAccess)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "editor", claims.Role)

	_, err = ParseToken(signed, "secret", TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrTokenType)

	_, err = ParseToken(signed, "other", TokenTypeAccess)
	assert.Error(t, err)
}

func TestParseExpired(t *testing.T) {
	signed, err := IssueToken("secret", 1, "viewer", TokenTypeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(signed, "secret", TokenTypeAccess)
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	signed, err := IssueToken("server-only", 7, "admin", TokenTypeAccess, time.Hour)
	require.NoError(t, err)

	claims, err := Inspect(signed)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.InDelta(t, time.Hour.Seconds(), claims.ExpiresIn(time.Now()).Seconds(), 5)

	_, err = Inspect("not-a-jwt")
	assert.Error(t, err)
}

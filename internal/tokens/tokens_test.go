package tokens

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	token, err := NewAccessToken(42, time.Hour, testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseAccess(token, testSecret)
	require.NoError(t, err)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
	assert.Equal(t, UseAccess, claims.Use)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRefreshToken_RoundTrip_UniqueJTI(t *testing.T) {
	t.Parallel()

	first, err := NewRefreshToken(7, time.Hour, testSecret)
	require.NoError(t, err)
	second, err := NewRefreshToken(7, time.Hour, testSecret)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	claims, err := ParseRefresh(first, testSecret)
	require.NoError(t, err)
	assert.Equal(t, UseRefresh, claims.Use)
	assert.NotEmpty(t, claims.ID)
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	token, err := NewAccessToken(1, -time.Minute, testSecret)
	require.NoError(t, err)

	claims, err := ParseAccess(token, testSecret)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := NewAccessToken(1, time.Hour, testSecret)
	require.NoError(t, err)

	claims, err := ParseAccess(token, []byte("other-secret"))
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestParse_TamperedPayload(t *testing.T) {
	t.Parallel()

	token, err := NewAccessToken(1, time.Hour, testSecret)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	tampered := strings.Replace(string(payload), `"sub":"1"`, `"sub":"2"`, 1)
	require.NotEqual(t, string(payload), tampered)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(tampered))

	claims, err := ParseAccess(strings.Join(parts, "."), testSecret)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "garbage", "a.b.c"} {
		claims, err := ParseAccess(input, testSecret)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, ErrMalformed)
	}
}

func TestParse_WrongUse(t *testing.T) {
	t.Parallel()

	access, err := NewAccessToken(1, time.Hour, testSecret)
	require.NoError(t, err)
	refresh, err := NewRefreshToken(1, time.Hour, testSecret)
	require.NoError(t, err)

	_, err = ParseRefresh(access, testSecret)
	assert.ErrorIs(t, err, ErrWrongUse)

	_, err = ParseAccess(refresh, testSecret)
	assert.ErrorIs(t, err, ErrWrongUse)
}

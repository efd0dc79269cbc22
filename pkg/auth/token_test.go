package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := NewTokens(testKey, "mediamind")

	signed, err := tokens.Issue("editor", time.Minute)
	require.NoError(t, err)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "editor", claims.Subject)
	assert.Equal(t, "mediamind", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokens_Errors(t *testing.T) {
	tokens := NewTokens(testKey, "mediamind")

	_, err := tokens.Issue("", time.Minute)
	assert.Error(t, err)

	_, err = tokens.Parse("")
	assert.True(t, errors.Is(err, ErrMissingToken))

	_, err = tokens.Parse("not.a.token")
	assert.True(t, errors.Is(err, ErrInvalidToken))

	other, err := NewTokens([]byte("another key of thirty-two bytes!"), "mediamind").Issue("editor", time.Minute)
	require.NoError(t, err)
	_, err = tokens.Parse(other)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	foreign, err := NewTokens(testKey, "someone-else").Issue("editor", time.Minute)
	require.NoError(t, err)
	_, err = tokens.Parse(foreign)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "editor"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Parse(none)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokens_Expiry(t *testing.T) {
	tokens := NewTokens(testKey, "")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return start }

	signed, err := tokens.Issue("editor", 0)
	require.NoError(t, err)

	tokens.now = func() time.Time { return start.Add(DefaultTTL - time.Second) }
	_, err = tokens.Parse(signed)
	assert.NoError(t, err)

	tokens.now = func() time.Time { return start.Add(DefaultTTL + time.Second) }
	_, err = tokens.Parse(signed)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestClaimsContext(t *testing.T) {
	assert.Equal(t, "", Subject(context.Background()))

	ctx := WithClaims(context.Background(), &jwt.RegisteredClaims{Subject: "editor"})
	claims, ok := ClaimsFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "editor", claims.Subject)
	assert.Equal(t, "editor", Subject(ctx))
}

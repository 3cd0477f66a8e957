package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSigner_RoundTrip(t *testing.T) {
	signer, err := NewTokenSigner("secret", "HS256", 30*time.Minute)
	require.NoError(t, err)

	now := time.Now()
	token, exp, err := signer.Generate("user@example.com", now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(30*time.Minute), exp, time.Second)

	claims, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenSigner_UniquePerCall(t *testing.T) {
	signer, err := NewTokenSigner("secret", "HS512", time.Minute)
	require.NoError(t, err)

	now := time.Now()
	t1, _, err := signer.Generate("a@b.c", now)
	require.NoError(t, err)
	t2, _, err := signer.Generate("a@b.c", now)
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

func TestTokenSigner_Expired(t *testing.T) {
	signer, err := NewTokenSigner("secret", "HS256", time.Minute)
	require.NoError(t, err)

	token, _, err := signer.Generate("a@b.c", time.Now().Add(-2*time.Minute))
	require.NoError(t, err)

	_, err = signer.Parse(token)
	require.Error(t, err)
	assert.True(t, IsExpired(err))
}

func TestTokenSigner_WrongSecretOrAlgorithm(t *testing.T) {
	signer, _ := NewTokenSigner("secret", "HS256", time.Minute)
	other, _ := NewTokenSigner("other", "HS256", time.Minute)
	otherAlg, _ := NewTokenSigner("secret", "HS384", time.Minute)

	token, _, err := other.Generate("a@b.c", time.Now())
	require.NoError(t, err)
	_, err = signer.Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	token, _, err = otherAlg.Generate("a@b.c", time.Now())
	require.NoError(t, err)
	_, err = signer.Parse(token)
	assert.Error(t, err)

	_, err = signer.Parse("garbage")
	assert.Error(t, err)
}

func TestNewTokenSigner_RejectsNonHMAC(t *testing.T) {
	_, err := NewTokenSigner("secret", "RS256", time.Minute)
	assert.Error(t, err)
	_, err = NewTokenSigner("secret", "nope", time.Minute)
	assert.Error(t, err)
}

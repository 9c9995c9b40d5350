package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssueAndVerify(t *testing.T) {
	m, err := NewTokenManager([]byte("secret"), time.Minute)
	require.NoError(t, err)

	token, err := m.Issue("examUser")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	sub, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "examUser", sub)
}

func TestTokenRandomSecret(t *testing.T) {
	a, err := NewTokenManager(nil, 0)
	require.NoError(t, err)
	b, err := NewTokenManager(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, a.ttl)

	token, err := a.Issue("examUser")
	require.NoError(t, err)
	_, err = b.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestTokenExpired(t *testing.T) {
	m, err := NewTokenManager([]byte("secret"), time.Minute)
	require.NoError(t, err)

	issued := time.Now()
	m.now = func() time.Time { return issued }
	token, err := m.Issue("examUser")
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenRejectsOtherIssuer(t *testing.T) {
	secret := []byte("secret")
	m, err := NewTokenManager(secret, time.Minute)
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "examUser",
		Audience:  jwt.ClaimStrings{TokenIssuer},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestTokenRejectsGarbage(t *testing.T) {
	m, err := NewTokenManager([]byte("secret"), time.Minute)
	require.NoError(t, err)
	_, err = m.Verify("not-a-jwt")
	assert.Error(t, err)
}

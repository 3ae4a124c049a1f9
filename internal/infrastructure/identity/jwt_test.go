package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestResolve_Subject(t *testing.T) {
	tok, err := Sign(secret, "c1", "customer", nil)
	require.NoError(t, err)

	p := NewJWTVerifier(secret, nil).Resolve(context.Background(), "Bearer "+tok)
	assert.Equal(t, "c1", p.CustomerID)
	assert.Equal(t, "customer", p.Role)
	assert.False(t, p.Anonymous())
}

func TestResolve_UserIDFallback(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u9"}).SignedString([]byte(secret))
	require.NoError(t, err)

	p := NewJWTVerifier(secret, nil).Resolve(context.Background(), tok)
	assert.Equal(t, "u9", p.CustomerID)
}

func TestResolve_InvalidTokensAreAnonymous(t *testing.T) {
	expired, err := Sign(secret, "c1", "", jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})
	require.NoError(t, err)
	wrongKey, err := Sign("other", "c1", "", nil)
	require.NoError(t, err)

	v := NewJWTVerifier(secret, nil)
	for name, cred := range map[string]string{
		"empty":     "",
		"garbage":   "not-a-jwt",
		"expired":   expired,
		"wrong_key": wrongKey,
		"bare":      "Bearer ",
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, v.Resolve(context.Background(), cred).Anonymous())
		})
	}
}

func TestResolve_RejectsNonHMAC(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "c1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	assert.True(t, NewJWTVerifier(secret, nil).Resolve(context.Background(), tok).Anonymous())
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseToken(t *testing.T) {
	t.Run("valid token roundtrip", func(t *testing.T) {
		signed := signToken(t, Claims{
			UserId: 42,
			Role:   "CLIENT",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}, testSecret)

		claims, err := ParseToken(signed, testSecret)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserId)
		assert.Equal(t, "CLIENT", claims.Role)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		signed := signToken(t, Claims{UserId: 42, Role: "CLIENT"}, "other-secret")
		_, err := ParseToken(signed, testSecret)
		assert.Error(t, err)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		signed := signToken(t, Claims{
			UserId: 42,
			Role:   "CLIENT",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}, testSecret)
		_, err := ParseToken(signed, testSecret)
		assert.Error(t, err)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		signed := signToken(t, Claims{UserId: 42, Role: "SUPERUSER"}, testSecret)
		_, err := ParseToken(signed, testSecret)
		assert.Error(t, err)
	})

	t.Run("missing user id rejected", func(t *testing.T) {
		signed := signToken(t, Claims{Role: "ADMIN"}, testSecret)
		_, err := ParseToken(signed, testSecret)
		assert.Error(t, err)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		_, err := ParseToken("not-a-jwt", testSecret)
		assert.Error(t, err)
	})
}

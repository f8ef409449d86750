package integration

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenMinter(t *testing.T) {
	key := []byte("test-signing-key")
	// Real wall-clock so standard exp validation passes during Parse.
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("mints a verifiable HS256 token", func(t *testing.T) {
		minter := NewTokenMinter(key, "offboard-worker", 10*time.Minute)
		signed, err := minter.Mint("1", now)
		require.NoError(t, err)

		parsed, err := jwt.Parse(signed, func(tok *jwt.Token) (any, error) {
			require.IsType(t, &jwt.SigningMethodHMAC{}, tok.Method)
			return key, nil
		})
		require.NoError(t, err)

		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, "offboard-worker", claims["iss"])
		assert.Equal(t, "1", claims["sub"])
		assert.Equal(t, float64(now.Unix()), claims["iat"])
		assert.Equal(t, float64(now.Add(10*time.Minute).Unix()), claims["exp"])
	})

	t.Run("wrong key fails verification", func(t *testing.T) {
		minter := NewTokenMinter(key, "offboard-worker", 10*time.Minute)
		signed, err := minter.Mint("1", now)
		require.NoError(t, err)

		_, err = jwt.Parse(signed, func(*jwt.Token) (any, error) {
			return []byte("other-key"), nil
		})
		assert.Error(t, err)
	})

	t.Run("non-positive ttl falls back to default", func(t *testing.T) {
		minter := NewTokenMinter(key, "offboard-worker", 0)
		signed, err := minter.Mint("1", now)
		require.NoError(t, err)

		parsed, err := jwt.Parse(signed, func(*jwt.Token) (any, error) { return key, nil })
		require.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, float64(now.Add(5*time.Minute).Unix()), claims["exp"])
	})
}

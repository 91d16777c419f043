package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestInspector_Decode(t *testing.T) {
	inspector := NewInspector()

	t.Run("valid token", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"sub": "user-1", "exp": float64(4102444800)})

		claims := inspector.Decode(token)
		require.NotNil(t, claims)
		assert.Equal(t, "user-1", claims["sub"])
	})

	t.Run("malformed inputs", func(t *testing.T) {
		for _, token := range []string{"", "garbage", "a.b", "a.b.c.d", "!!.!!.!!"} {
			assert.Nil(t, inspector.Decode(token), "token %q should not decode", token)
		}
	})
}

func TestInspector_IsExpired(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	inspector := NewInspectorAt(func() time.Time { return now })

	tests := []struct {
		name    string
		token   string
		expired bool
	}{
		{
			name:    "future expiry",
			token:   signedToken(t, jwt.MapClaims{"exp": float64(now.Add(time.Hour).Unix())}),
			expired: false,
		},
		{
			name:    "past expiry",
			token:   signedToken(t, jwt.MapClaims{"exp": float64(now.Add(-time.Hour).Unix())}),
			expired: true,
		},
		{
			name:    "expiry exactly now",
			token:   signedToken(t, jwt.MapClaims{"exp": float64(now.Unix())}),
			expired: true,
		},
		{
			name:    "no expiry claim fails closed",
			token:   signedToken(t, jwt.MapClaims{"sub": "user-1"}),
			expired: true,
		},
		{
			name:    "undecodable fails closed",
			token:   "not-a-jwt",
			expired: true,
		},
		{
			name:    "development token never expires",
			token:   "mock-access-token",
			expired: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, inspector.IsExpired(tt.token))
		})
	}
}

func TestInspector_RemainingMinutes(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	inspector := NewInspectorAt(func() time.Time { return now })

	t.Run("whole minutes until expiry", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"exp": float64(now.Add(90*time.Minute + 30*time.Second).Unix())})
		assert.Equal(t, 90, inspector.RemainingMinutes(token))
	})

	t.Run("expired token", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"exp": float64(now.Add(-time.Minute).Unix())})
		assert.Equal(t, 0, inspector.RemainingMinutes(token))
	})

	t.Run("undecodable token", func(t *testing.T) {
		assert.Equal(t, 0, inspector.RemainingMinutes("garbage"))
	})
}

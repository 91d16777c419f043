package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// devTokenMarker flags development placeholder tokens issued by stub
// backends. Tokens containing it are reported as never expiring. This is a
// UX escape hatch, not a security boundary: the backend revalidates every
// token server-side.
const devTokenMarker = "mock"

// Inspector answers expiry questions about bearer tokens without a server
// round trip. The payload is decoded without signature verification, so the
// answers are only ever used to skip requests that would fail anyway, never
// as an authorization decision.
type Inspector struct {
	now func() time.Time
}

// NewInspector creates an inspector using the wall clock.
func NewInspector() *Inspector {
	return &Inspector{now: time.Now}
}

// NewInspectorAt creates an inspector with an injectable clock.
func NewInspectorAt(now func() time.Time) *Inspector {
	if now == nil {
		now = time.Now
	}
	return &Inspector{now: now}
}

// Decode parses the token payload without verifying the signature. It
// returns nil for any malformed input (wrong segment count, bad base64,
// invalid JSON); a decoding failure is an expected outcome, not an error.
func (i *Inspector) Decode(token string) jwt.MapClaims {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return claims
}

// IsExpired reports whether the token's embedded expiry has passed.
// Development placeholder tokens never expire. Real tokens that cannot be
// decoded or carry no expiry claim are treated as expired (fail closed).
func (i *Inspector) IsExpired(token string) bool {
	if containsDevMarker(token) {
		return false
	}

	exp, ok := i.expiry(token)
	if !ok {
		return true
	}
	return !i.now().Before(exp)
}

// RemainingMinutes returns the whole minutes until the token expires, or 0
// if it is expired or undecodable.
func (i *Inspector) RemainingMinutes(token string) int {
	exp, ok := i.expiry(token)
	if !ok {
		return 0
	}

	remaining := exp.Sub(i.now())
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Minute)
}

// expiry extracts the exp claim (seconds since epoch) as a time.
func (i *Inspector) expiry(token string) (time.Time, bool) {
	claims := i.Decode(token)
	if claims == nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func containsDevMarker(token string) bool {
	return token != "" && strings.Contains(token, devTokenMarker)
}

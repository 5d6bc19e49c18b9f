package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenUsable reports whether a hydrated bearer token is worth presenting to
// the backend. The portal holds no signing key, so the signature is not
// checked here; this only weeds out tokens that are visibly expired instead
// of bouncing them off the backend first. Tokens that do not parse as JWTs
// are treated as opaque and left for the backend to judge.
func tokenUsable(token string) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.After(time.Now())
}

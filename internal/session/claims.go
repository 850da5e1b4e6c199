package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what the console shows about a token. The signature is not
// checked and expiry is never enforced client side; the backend decides.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// Claims decodes a JWT-shaped bearer token without verifying it. ok is
// false for opaque tokens.
func Claims(token string) (TokenClaims, bool) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return TokenClaims{}, false
	}
	out := TokenClaims{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, true
}

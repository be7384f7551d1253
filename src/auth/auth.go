package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stock-stream/src/helpers"
)

// -----------------------------------------------------------------------------

// Verifier validates client-supplied JWTs signed with a shared HMAC
// secret. A valid token only stamps the connection's identity; it never
// gates subscriptions.
type Verifier struct {
	secret []byte
}

// -----------------------------------------------------------------------------

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// -----------------------------------------------------------------------------

// Verify parses the token and returns the user id from its subject claim.
func (v *Verifier) Verify(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", helpers.ErrInvalidToken
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", helpers.ErrInvalidToken
	}

	return subject, nil
}

// -----------------------------------------------------------------------------

// Sign issues a token for the given user id. Exists for tooling and
// tests; the production path only verifies.
func (v *Verifier) Sign(userID string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

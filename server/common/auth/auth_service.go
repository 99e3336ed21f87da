package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Service verifies bearer tokens signed with the process-wide shared secret.
// Tokens are issued elsewhere; this service only checks them.
type Service struct {
	secret []byte
}

func NewService(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// VerifyToken parses and validates an HS256 token. The returned claims are
// opaque to callers: a valid identity is all the upload path requires.
func (s *Service) VerifyToken(token string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidSignedToken = errors.New("invalid or expired signed token")

// Signer mints and verifies the capability tokens behind signed URLs: an
// HMAC-signed claim granting read access to one object key until expiry.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

type objectClaims struct {
	Key string `json:"key"`
	jwt.RegisteredClaims
}

// Sign returns a token granting read access to key for ttl.
func (s *Signer) Sign(key string, ttl time.Duration) (string, error) {
	claims := objectClaims{
		Key: key,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign object token: %w", err)
	}
	return signed, nil
}

// Verify checks the token and returns the object key it grants access to.
func (s *Signer) Verify(token string) (string, error) {
	var claims objectClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Key == "" {
		return "", ErrInvalidSignedToken
	}
	return claims.Key, nil
}

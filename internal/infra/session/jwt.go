package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrEmptySecret = errors.New("session secret is empty")

type jwtVerifier struct {
	secret []byte
	leeway time.Duration
}

// NewJWTVerifier validates HS256-signed session tokens. Any parse or claim
// failure is reported as an invalid token, not an error.
func NewJWTVerifier(secret string, leeway time.Duration) (Verifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &jwtVerifier{secret: []byte(secret), leeway: leeway}, nil
}

func (v *jwtVerifier) Verify(_ context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return false, nil
	}

	return parsed.Valid, nil
}

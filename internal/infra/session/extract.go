package session

import (
	"context"
	"net/http"
	"strings"
)

// Verifier reports whether a session token is currently valid.
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

func DefaultCookieNames() []string {
	return []string{
		"next-auth.session-token",
		"__Secure-next-auth.session-token",
	}
}

// Extract returns the session token carried by r: the first non-empty cookie
// among cookieNames, otherwise a bearer token from the Authorization header.
func Extract(r *http.Request, cookieNames []string) string {
	for _, name := range cookieNames {
		cookie, err := r.Cookie(name)
		if err != nil {
			continue
		}
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value
		}
	}

	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > len("Bearer ") && strings.EqualFold(authHeader[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}

	return ""
}

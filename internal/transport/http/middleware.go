package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/astro-web3/dashboard-gate/internal/app/gate"
	"github.com/astro-web3/dashboard-gate/internal/domain/guard"
	"github.com/astro-web3/dashboard-gate/internal/infra/session"
	"github.com/astro-web3/dashboard-gate/pkg/logger"
	"github.com/gin-gonic/gin"
)

// loggingMiddleware writes one access record per request. Server errors are
// logged at warn: the component that failed owns the error-level record.
func loggingMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		}

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(c.Request.Context(), level, "request completed", attrs...)
	}
}

// guardMiddleware gates every request through the gate service. The request
// path is normalized first and handed on in that form, so the upstream serves
// exactly the path that was checked. Denied browser requests are sent to
// loginURL with a callbackUrl back to where they started; without a login URL
// they get a 401.
func guardMiddleware(svc gate.Service, cookieNames []string, loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cleaned := guard.Normalize(c.Request.URL.Path); cleaned != c.Request.URL.Path {
			c.Request.URL.Path = cleaned
			c.Request.URL.RawPath = ""
		}

		token := session.Extract(c.Request, cookieNames)
		decision := svc.Check(c.Request.Context(), c.Request.URL.Path, token)
		if decision.Allow {
			c.Next()
			return
		}

		logger.InfoContext(c.Request.Context(), "request blocked by guard",
			slog.String("path", c.Request.URL.Path),
			slog.String("pattern", decision.Pattern),
		)

		if loginURL == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Redirect(http.StatusFound, signInURL(loginURL, c.Request.URL.RequestURI()))
		c.Abort()
	}
}

func signInURL(loginURL, callback string) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return loginURL
	}
	q := u.Query()
	q.Set("callbackUrl", callback)
	u.RawQuery = q.Encode()
	return u.String()
}

// cronSecretMiddleware requires "Authorization: Bearer <secret>" when secret
// is non-empty and is a no-op otherwise.
func cronSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		got := c.GetHeader("Authorization")
		if subtle.ConstantTimeCompare([]byte(got), []byte("Bearer "+secret)) != 1 {
			logger.WarnContext(c.Request.Context(), "cron request rejected",
				slog.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Next()
	}
}

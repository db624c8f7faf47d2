package http

import (
	"net/http"
	"strings"

	"github.com/astro-web3/dashboard-gate/internal/app/gate"
	"github.com/astro-web3/dashboard-gate/internal/domain/guard"
	"github.com/astro-web3/dashboard-gate/internal/infra/session"
	"github.com/astro-web3/dashboard-gate/pkg/tracer"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// Handler answers forward-auth subrequests from a reverse proxy that sits in
// front of the application.
type Handler struct {
	gate        gate.Service
	cookieNames []string
}

func NewHandler(gateService gate.Service, cookieNames []string) *Handler {
	return &Handler{
		gate:        gateService,
		cookieNames: cookieNames,
	}
}

func (h *Handler) Check(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "transport.http.Check")
	defer span.End()

	path := forwardedPath(c.Request)
	token := session.Extract(c.Request, h.cookieNames)

	decision := h.gate.Check(ctx, path, token)
	span.SetAttributes(
		attribute.String("gate.forwarded_path", path),
		attribute.Bool("gate.allowed", decision.Allow),
	)

	if !decision.Allow {
		c.JSON(http.StatusUnauthorized, gin.H{"error": decision.Reason})
		return
	}

	c.Status(http.StatusOK)
}

func forwardedPath(r *http.Request) string {
	for _, header := range []string{"X-Forwarded-Uri", "X-Original-URI"} {
		if v := r.Header.Get(header); v != "" {
			return guard.Normalize(stripQuery(v))
		}
	}
	return "/"
}

func stripQuery(uri string) string {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		return uri[:i]
	}
	return uri
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/astro-web3/dashboard-gate/internal/app/gate"
	"github.com/astro-web3/dashboard-gate/internal/config"
	"github.com/astro-web3/dashboard-gate/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterDeps struct {
	Gate     gate.Service
	Handler  *Handler
	Cron     *CronHandler
	Upstream http.Handler
	// Log receives access records; nil means the process logger.
	Log *slog.Logger
}

func NewRouter(cfg *config.Config, deps RouterDeps) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	if cfg.Observability.TraceEnabled {
		router.Use(otelgin.Middleware(serviceName))
	}
	accessLog := deps.Log
	if accessLog == nil {
		accessLog = logger.Logger()
	}
	router.Use(loggingMiddleware(accessLog))
	router.Use(guardMiddleware(deps.Gate, cfg.Auth.Session.CookieNames, cfg.Auth.LoginURL))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	router.GET("/auth/check", deps.Handler.Check)

	cron := router.Group("/api/cron", cronSecretMiddleware(cfg.Cron.Secret))
	cron.GET("", deps.Cron.Jobs)
	cron.GET("/daily-report", deps.Cron.DailyReport)

	if deps.Upstream != nil {
		router.NoRoute(gin.WrapH(deps.Upstream))
	}

	return router
}

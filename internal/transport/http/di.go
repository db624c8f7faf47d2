package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	gateapp "github.com/astro-web3/dashboard-gate/internal/app/gate"
	reportapp "github.com/astro-web3/dashboard-gate/internal/app/report"
	"github.com/astro-web3/dashboard-gate/internal/config"
	"github.com/astro-web3/dashboard-gate/internal/domain/guard"
	"github.com/astro-web3/dashboard-gate/internal/domain/report"
	"github.com/astro-web3/dashboard-gate/internal/infra/reportapi"
	"github.com/astro-web3/dashboard-gate/internal/infra/session"
	"github.com/astro-web3/dashboard-gate/pkg/logger"
	"github.com/astro-web3/dashboard-gate/pkg/otel"
	"github.com/astro-web3/dashboard-gate/pkg/tracer"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	httpServer *http.Server
	gate       gateapp.Service
	redis      *redis.Client
}

const (
	idleTimeoutMultiplier = 2
	serviceName           = "dashboard-gate"
)

func NewServer(cfg *config.Config, version string) (*Server, error) {
	logger.InitLogger(cfg.Observability.LogLevel, cfg.Observability.Format, cfg.Observability.LogSource)

	otelCfg := otel.Config{
		ServiceName:        serviceName,
		ServiceVersion:     version,
		EndpointURL:        cfg.Observability.TracingEndpointURL,
		Enabled:            cfg.Observability.TraceEnabled,
		SampleRatio:        cfg.Observability.SampleRatio,
		Insecure:           true,
		ResourceAttributes: make(map[string]string),
	}
	if err := tracer.InitTracer(otelCfg); err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	policy, err := guard.NewPolicy(cfg.Auth.Rules)
	if err != nil {
		return nil, fmt.Errorf("failed to compile guard rules: %w", err)
	}

	verifier, redisClient, err := NewVerifier(cfg)
	if err != nil {
		return nil, err
	}

	gateService := gateapp.NewService(policy, verifier)
	reportService := reportapp.NewService(
		NewDispatcher(cfg),
		report.DailyReportJob(cfg.Cron.Schedule),
	)

	deps := RouterDeps{
		Gate:    gateService,
		Handler: NewHandler(gateService, cfg.Auth.Session.CookieNames),
		Cron:    NewCronHandler(reportService, logger.Logger().With(slog.String("component", "cron"))),
	}
	if cfg.Server.UpstreamURL != "" {
		upstream, proxyErr := newUpstreamProxy(cfg.Server.UpstreamURL)
		if proxyErr != nil {
			return nil, proxyErr
		}
		deps.Upstream = upstream
	}

	router := NewRouter(cfg, deps)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout * idleTimeoutMultiplier,
	}

	return &Server{
		httpServer: httpServer,
		gate:       gateService,
		redis:      redisClient,
	}, nil
}

// NewVerifier builds the session verifier for the configured strategy. The
// returned Redis client is nil unless the redis strategy is selected.
func NewVerifier(cfg *config.Config) (session.Verifier, *redis.Client, error) {
	switch cfg.Auth.Session.Strategy {
	case config.SessionStrategyRedis:
		client, err := session.NewRedisClient(cfg.Redis.URL, cfg.Redis.PoolSize)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		return session.NewRedisVerifier(client), client, nil
	default:
		verifier, err := session.NewJWTVerifier(cfg.Auth.Session.Secret, cfg.Auth.Session.Leeway)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create jwt verifier: %w", err)
		}
		return verifier, nil, nil
	}
}

func NewDispatcher(cfg *config.Config) report.Dispatcher {
	return reportapi.NewClient(cfg.Report.BaseURL, cfg.Report.Token, cfg.Report.Timeout)
}

// ReloadRules swaps the guard rules without restarting the listener.
func (s *Server) ReloadRules(rules []guard.Rule) error {
	policy, err := guard.NewPolicy(rules)
	if err != nil {
		return fmt.Errorf("failed to compile guard rules: %w", err)
	}
	s.gate.SetPolicy(policy)
	return nil
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.redis != nil {
		if closeErr := s.redis.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close redis client: %w", closeErr)
		}
	}
	return err
}

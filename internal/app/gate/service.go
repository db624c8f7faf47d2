package gate

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/astro-web3/dashboard-gate/internal/domain/guard"
	"github.com/astro-web3/dashboard-gate/internal/infra/session"
	"github.com/astro-web3/dashboard-gate/pkg/logger"
	"github.com/astro-web3/dashboard-gate/pkg/tracer"
	"go.opentelemetry.io/otel/attribute"
)

type Service interface {
	Check(ctx context.Context, path, token string) guard.Decision
	SetPolicy(policy *guard.Policy)
}

type service struct {
	policy   atomic.Pointer[guard.Policy]
	verifier session.Verifier
}

func NewService(policy *guard.Policy, verifier session.Verifier) Service {
	s := &service{verifier: verifier}
	s.policy.Store(policy)
	return s
}

func (s *service) SetPolicy(policy *guard.Policy) {
	s.policy.Store(policy)
}

// Check resolves token presence only for paths a protected rule covers, so
// public traffic never reaches the session store.
func (s *service) Check(ctx context.Context, path, token string) guard.Decision {
	ctx, span := tracer.Start(ctx, "app.gate.Check")
	defer span.End()

	policy := s.policy.Load()

	hasToken := false
	if policy.Protects(path) {
		hasToken = s.hasToken(ctx, token)
	}

	decision := policy.Decide(path, hasToken)

	span.SetAttributes(
		attribute.String("gate.path", path),
		attribute.Bool("gate.has_token", hasToken),
		attribute.Bool("gate.allowed", decision.Allow),
	)
	if decision.Pattern != "" {
		span.SetAttributes(attribute.String("gate.pattern", decision.Pattern))
	}

	return decision
}

func (s *service) hasToken(ctx context.Context, token string) bool {
	if token == "" || s.verifier == nil {
		return false
	}

	ok, err := s.verifier.Verify(ctx, token)
	if err != nil {
		logger.WarnContext(ctx, "session verification failed, treating as anonymous",
			slog.String("error", err.Error()))
		return false
	}

	return ok
}

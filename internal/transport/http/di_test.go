package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/astro-web3/dashboard-gate/internal/config"
	"github.com/astro-web3/dashboard-gate/internal/domain/guard"
)

func newReloadTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Addr = ":0"
	cfg.Server.Mode = "test"
	cfg.Auth.Rules = guard.DefaultRules()
	cfg.Auth.Session.Strategy = config.SessionStrategyJWT
	cfg.Auth.Session.Secret = "s3cret"
	cfg.Observability.LogLevel = "error"
	cfg.Observability.Format = "text"

	srv, err := NewServer(cfg, "test")
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func checkStatus(srv *Server, forwarded string) int {
	req := httptest.NewRequest(http.MethodGet, "/auth/check", nil)
	req.Header.Set("X-Forwarded-Uri", forwarded)
	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, req)
	return w.Code
}

func TestServer_ReloadRules(t *testing.T) {
	srv := newReloadTestServer(t)

	if got := checkStatus(srv, "/admin/users"); got != http.StatusOK {
		t.Fatalf("before reload /admin/users = %d, want %d", got, http.StatusOK)
	}

	err := srv.ReloadRules([]guard.Rule{
		{Pattern: "/admin/:path*", Access: guard.AccessProtected},
	})
	if err != nil {
		t.Fatalf("ReloadRules: %v", err)
	}

	if got := checkStatus(srv, "/admin/users"); got != http.StatusUnauthorized {
		t.Errorf("after reload /admin/users = %d, want %d", got, http.StatusUnauthorized)
	}
	if got := checkStatus(srv, "/dashboard/settings"); got != http.StatusOK {
		t.Errorf("after reload /dashboard/settings = %d, want %d", got, http.StatusOK)
	}
}

func TestServer_ReloadRulesKeepsPolicyOnError(t *testing.T) {
	srv := newReloadTestServer(t)

	err := srv.ReloadRules([]guard.Rule{{Pattern: "dashboard", Access: guard.AccessProtected}})
	if err == nil {
		t.Fatal("expected error for invalid rule")
	}

	if got := checkStatus(srv, "/dashboard/settings"); got != http.StatusUnauthorized {
		t.Errorf("/dashboard/settings = %d, want %d", got, http.StatusUnauthorized)
	}
}

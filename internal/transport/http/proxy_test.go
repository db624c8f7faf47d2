package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewUpstreamProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("upstream:" + r.URL.Path))
	}))
	defer upstream.Close()

	proxy, err := newUpstreamProxy(upstream.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := httptest.NewRecorder()
	proxy.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/settings", nil))

	if w.Body.String() != "upstream:/dashboard/settings" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestNewUpstreamProxy_BadGateway(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	target := upstream.URL
	upstream.Close()

	proxy, err := newUpstreamProxy(target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := httptest.NewRecorder()
	proxy.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected status %d, got %d", http.StatusBadGateway, w.Code)
	}
}

func TestNewUpstreamProxy_RelativeURL(t *testing.T) {
	if _, err := newUpstreamProxy("/relative"); err == nil {
		t.Fatal("expected error for relative upstream")
	}
}

func TestSignInURL(t *testing.T) {
	got := signInURL("https://app.example.com/api/auth/signin?provider=github", "/dashboard?x=1")
	want := "https://app.example.com/api/auth/signin?callbackUrl=%2Fdashboard%3Fx%3D1&provider=github"
	if got != want {
		t.Errorf("signInURL() = %q, want %q", got, want)
	}
}

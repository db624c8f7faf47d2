// Command smoke exercises a running gate: health, forward-auth decisions and
// the cron endpoint.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	httpclient "github.com/astro-web3/dashboard-gate/pkg/http"
)

type check struct {
	name   string
	path   string
	opts   []httpclient.RequestOption
	expect int
}

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <session-token> [base-url] [cron-secret]", os.Args[0])
	}

	token := os.Args[1]
	baseURL := "http://localhost:8080"
	if len(os.Args) > 2 {
		baseURL = os.Args[2]
	}
	var cronOpts []httpclient.RequestOption
	if len(os.Args) > 3 {
		cronOpts = append(cronOpts, httpclient.WithAuthToken(os.Args[3]))
	}

	client := httpclient.New(httpclient.Options{BaseURL: baseURL})
	ctx := context.Background()

	checks := []check{
		{name: "health", path: "/healthz", expect: http.StatusOK},
		{
			name:   "public path without token",
			path:   "/auth/check",
			opts:   []httpclient.RequestOption{httpclient.WithHeader("X-Forwarded-Uri", "/about")},
			expect: http.StatusOK,
		},
		{
			name:   "dashboard without token",
			path:   "/auth/check",
			opts:   []httpclient.RequestOption{httpclient.WithHeader("X-Forwarded-Uri", "/dashboard/settings")},
			expect: http.StatusUnauthorized,
		},
		{
			name: "dashboard with token",
			path: "/auth/check",
			opts: []httpclient.RequestOption{
				httpclient.WithHeader("X-Forwarded-Uri", "/dashboard/settings"),
				httpclient.WithAuthToken(token),
			},
			expect: http.StatusOK,
		},
		{name: "daily report", path: "/api/cron/daily-report", opts: cronOpts, expect: http.StatusOK},
	}

	failed := 0
	for _, c := range checks {
		resp, err := client.Get(ctx, c.path, c.opts...)
		if err != nil {
			fmt.Printf("FAIL %-28s request error: %v\n", c.name, err)
			failed++
			continue
		}
		if resp.StatusCode() != c.expect {
			fmt.Printf("FAIL %-28s status %d, want %d: %s\n", c.name, resp.StatusCode(), c.expect, resp.String())
			failed++
			continue
		}
		fmt.Printf("ok   %-28s %d\n", c.name, resp.StatusCode())
	}

	if failed > 0 {
		os.Exit(1)
	}
}

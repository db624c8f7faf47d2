package reportapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/astro-web3/dashboard-gate/internal/domain/report"
	httpclient "github.com/astro-web3/dashboard-gate/pkg/http"
	"github.com/astro-web3/dashboard-gate/pkg/logger"
)

var ErrUnexpectedStatus = errors.New("unexpected status from report service")

const dailyReportPath = "/reports/daily"

type DispatchResponse struct {
	ID         string `json:"id,omitempty"`
	Recipients int    `json:"recipients,omitempty"`
}

type Client struct {
	http  *httpclient.Client
	token string
}

var _ report.Dispatcher = (*Client)(nil)

// NewClient returns a dispatcher that asks the report service to compose and
// send the daily report.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		http: httpclient.New(httpclient.Options{
			BaseURL: baseURL,
			Timeout: timeout,
		}),
		token: token,
	}
}

func (c *Client) SendDailyReport(ctx context.Context) error {
	var out DispatchResponse
	resp, err := c.http.Post(ctx, dailyReportPath,
		httpclient.WithAuthToken(c.token),
		httpclient.WithResult(&out),
	)
	if err != nil {
		return fmt.Errorf("daily report request failed: %w", err)
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}

	logger.InfoContext(ctx, "daily report dispatched",
		slog.String("dispatch_id", out.ID),
		slog.Int("recipients", out.Recipients),
	)

	return nil
}

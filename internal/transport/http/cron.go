package http

import (
	"log/slog"
	"net/http"

	reportapp "github.com/astro-web3/dashboard-gate/internal/app/report"
	"github.com/gin-gonic/gin"
)

const dailyReportFailureMessage = "Failed to send daily report"

// CronHandler serves endpoints called by the external scheduler.
type CronHandler struct {
	reports reportapp.Service
	log     *slog.Logger
}

func NewCronHandler(reports reportapp.Service, log *slog.Logger) *CronHandler {
	return &CronHandler{
		reports: reports,
		log:     log,
	}
}

// DailyReport makes one dispatch attempt per request. The cause of a failure
// is logged and never returned to the caller.
func (h *CronHandler) DailyReport(c *gin.Context) {
	ctx := c.Request.Context()

	outcome := h.reports.Trigger(ctx)
	if !outcome.Success() {
		h.log.ErrorContext(ctx, "failed to send daily report", slog.Any("error", outcome.Err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": dailyReportFailureMessage})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CronHandler) Jobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.reports.Jobs()})
}

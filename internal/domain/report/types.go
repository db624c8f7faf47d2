package report

import "context"

// Dispatcher sends the daily report. Idempotence is the dispatcher's concern;
// callers invoke it once per trigger.
type Dispatcher interface {
	SendDailyReport(ctx context.Context) error
}

// DispatcherFunc adapts a function to a Dispatcher.
type DispatcherFunc func(ctx context.Context) error

func (f DispatcherFunc) SendDailyReport(ctx context.Context) error {
	return f(ctx)
}

// Outcome is the result of a single dispatch attempt.
type Outcome struct {
	Err error
}

func (o Outcome) Success() bool {
	return o.Err == nil
}

// Job describes a scheduled endpoint. The schedule itself is owned by the
// external scheduler that calls Path.
type Job struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Schedule string `json:"schedule"`
	Path     string `json:"path"`
}

const DailyReportPath = "/api/cron/daily-report"

func DailyReportJob(schedule string) Job {
	return Job{
		ID:       "daily-report",
		Title:    "Send daily report",
		Schedule: schedule,
		Path:     DailyReportPath,
	}
}

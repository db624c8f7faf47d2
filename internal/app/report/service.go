package report

import (
	"context"

	"github.com/astro-web3/dashboard-gate/internal/domain/report"
	"github.com/astro-web3/dashboard-gate/pkg/tracer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Service interface {
	Trigger(ctx context.Context) report.Outcome
	Jobs() []report.Job
}

type service struct {
	dispatcher report.Dispatcher
	jobs       []report.Job
}

func NewService(dispatcher report.Dispatcher, jobs ...report.Job) Service {
	return &service{
		dispatcher: dispatcher,
		jobs:       jobs,
	}
}

// Trigger makes exactly one dispatch attempt. Retries belong to the scheduler.
func (s *service) Trigger(ctx context.Context) report.Outcome {
	ctx, span := tracer.Start(ctx, "app.report.Trigger")
	defer span.End()

	span.SetAttributes(attribute.String("report.job", "daily-report"))

	if err := s.dispatcher.SendDailyReport(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch failed")
		return report.Outcome{Err: err}
	}

	span.SetStatus(codes.Ok, "")
	return report.Outcome{}
}

func (s *service) Jobs() []report.Job {
	jobs := make([]report.Job, len(s.jobs))
	copy(jobs, s.jobs)
	return jobs
}

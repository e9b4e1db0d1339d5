// Package service implements the verification use cases on top of the
// repository, cache, event and worker layers. Handlers depend on the
// interfaces declared here.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trustnet/internal/cache"
	"trustnet/internal/config"
	"trustnet/internal/events"
	"trustnet/internal/lexicon"
	"trustnet/internal/logging"
	"trustnet/internal/repository"
	"trustnet/internal/storage"
	"trustnet/internal/worker"
)

var tracer = otel.Tracer("trustnet/internal/service")

// Deps are the collaborators shared by the services. Archive is optional.
type Deps struct {
	Repo    repository.Repository
	Cache   *cache.Manager
	Events  events.Publisher
	Topics  events.Topics
	Pool    *worker.Pool
	Archive *storage.ReportArchive
	Lexicon *lexicon.Lexicon
	Log     *logging.Logger
	Rules   config.VerificationConfig
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// publish sends an event and logs, rather than returns, a failure.
func (d Deps) publish(ctx context.Context, topic string, payload any, attrs map[string]string) {
	if d.Events == nil {
		return
	}
	if _, err := d.Events.Publish(ctx, topic, payload, attrs); err != nil {
		d.Log.Warn("event_publish_failed", err, logging.Fields{"topic": topic})
	}
}

// schedule runs job on the worker pool, or inline when the pool is absent or full.
func (d Deps) schedule(ctx context.Context, job worker.Job) {
	if d.Pool != nil {
		err := d.Pool.Submit(job)
		if err == nil {
			return
		}
		d.Log.Warn("job_run_inline", err, logging.Fields{"job": job.Name})
	}
	if err := job.Run(context.WithoutCancel(ctx)); err != nil {
		d.Log.Error("job_failed", err, logging.Fields{"job": job.Name})
	}
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

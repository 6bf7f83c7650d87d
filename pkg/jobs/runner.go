package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/dsmaint/pkg/observability"
	"github.com/Sumatoshi-tech/dsmaint/pkg/record"
)

// Report describes one finished job run.
type Report struct {
	RunID    string
	Job      string
	Results  []Result
	Examined int
	Invalid  int
	Started  time.Time
	Duration time.Duration
}

// Runner executes jobs with tracing, metrics and logging around them.
// Runs are synchronous; callers serialize runs against the same store.
type Runner struct {
	tracer  trace.Tracer
	metrics *observability.JobMetrics
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTracer sets the tracer used for job spans.
func WithTracer(tracer trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = tracer }
}

// WithMetrics sets the job metric instruments.
func WithMetrics(metrics *observability.JobMetrics) RunnerOption {
	return func(r *Runner) { r.metrics = metrics }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithRunIDs replaces the run ID generator, for tests.
func WithRunIDs(newID func() string) RunnerOption {
	return func(r *Runner) { r.newID = newID }
}

// NewRunner creates a runner. Without options it traces nothing, records no
// metrics and logs through slog.Default.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		tracer: nooptrace.NewTracerProvider().Tracer("dsmaint/jobs"),
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run executes job against src and returns its report.
func (r *Runner) Run(ctx context.Context, job Job, src record.Lister) (Report, error) {
	runID := r.newID()
	ctx = observability.WithRunID(ctx, runID)

	ctx, span := r.tracer.Start(ctx, "jobs.run", trace.WithAttributes(
		attribute.String("job.name", job.Name()),
		attribute.String("job.run_id", runID),
	))
	defer span.End()

	r.logger.InfoContext(ctx, "job started", "job", job.Name())

	started := r.now()
	out, err := job.Run(ctx, src)
	duration := r.now().Sub(started)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		r.metrics.RecordRun(ctx, observability.JobStats{
			Job:      job.Name(),
			Status:   observability.StatusError,
			Duration: duration,
		})

		r.logger.ErrorContext(ctx, "job failed", "job", job.Name(), "error", err)

		return Report{}, fmt.Errorf("job %s: %w", job.Name(), err)
	}

	span.SetAttributes(
		attribute.Int("job.records", out.Examined),
		attribute.Int("job.invalid", out.Invalid),
	)

	r.metrics.RecordRun(ctx, observability.JobStats{
		Job:        job.Name(),
		Status:     observability.StatusOK,
		Records:    out.Examined,
		Violations: out.Invalid,
		Duration:   duration,
	})

	r.logger.InfoContext(ctx, "job finished",
		"job", job.Name(),
		"records", out.Examined,
		"invalid", out.Invalid,
		"results", len(out.Results),
		"duration", duration,
	)

	return Report{
		RunID:    runID,
		Job:      job.Name(),
		Results:  out.Results,
		Examined: out.Examined,
		Invalid:  out.Invalid,
		Started:  started,
		Duration: duration,
	}, nil
}

package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal       = "dsmaint.job.runs.total"
	metricRecordsTotal    = "dsmaint.job.records.total"
	metricViolationsTotal = "dsmaint.job.violations.total"
	metricRunDuration     = "dsmaint.job.duration.seconds"

	attrJob    = "job"
	attrStatus = "status"

	// StatusOK marks a job run that completed.
	StatusOK = "ok"
	// StatusError marks a job run that returned an error.
	StatusError = "error"
)

// durationBucketBoundaries covers 1ms to 10min: in-memory runs finish in
// milliseconds, full datastore scans in minutes.
var durationBucketBoundaries = []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 600}

// JobMetrics holds OTel instruments for batch job runs.
type JobMetrics struct {
	runsTotal       metric.Int64Counter
	recordsTotal    metric.Int64Counter
	violationsTotal metric.Int64Counter
	runDuration     metric.Float64Histogram
}

// JobStats holds the statistics for a single job run.
type JobStats struct {
	Job        string
	Status     string
	Records    int
	Violations int
	Duration   time.Duration
}

// NewJobMetrics creates job metric instruments from the given meter.
func NewJobMetrics(mt metric.Meter) (*JobMetrics, error) {
	runs, err := mt.Int64Counter(metricRunsTotal,
		metric.WithDescription("Total job runs by status"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunsTotal, err)
	}

	records, err := mt.Int64Counter(metricRecordsTotal,
		metric.WithDescription("Total records examined by jobs"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRecordsTotal, err)
	}

	violations, err := mt.Int64Counter(metricViolationsTotal,
		metric.WithDescription("Total records reported as invalid by jobs"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricViolationsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Job run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	return &JobMetrics{
		runsTotal:       runs,
		recordsTotal:    records,
		violationsTotal: violations,
		runDuration:     duration,
	}, nil
}

// RecordRun records one finished job run.
// Safe to call on a nil receiver (no-op).
func (jm *JobMetrics) RecordRun(ctx context.Context, stats JobStats) {
	if jm == nil {
		return
	}

	jobAttr := attribute.String(attrJob, stats.Job)

	jm.runsTotal.Add(ctx, 1, metric.WithAttributes(jobAttr, attribute.String(attrStatus, stats.Status)))
	jm.runDuration.Record(ctx, stats.Duration.Seconds(), metric.WithAttributes(jobAttr))

	if stats.Status != StatusOK {
		return
	}

	jm.recordsTotal.Add(ctx, int64(stats.Records), metric.WithAttributes(jobAttr))
	jm.violationsTotal.Add(ctx, int64(stats.Violations), metric.WithAttributes(jobAttr))
}

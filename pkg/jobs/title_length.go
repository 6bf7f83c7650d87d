package jobs

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/dsmaint/pkg/record"
)

// MaxTitleLength is the longest exploration title, in characters, that
// passes validation.
const MaxTitleLength = 36

// TitleLengthJobName is the registry name of TitleLengthJob.
const TitleLengthJobName = "exp-title-length"

// TitleLengthJob counts exploration records whose title exceeds the limit and
// reports each offender.
type TitleLengthJob struct {
	maxLength int
	kind      string
}

// TitleLengthOption configures a TitleLengthJob.
type TitleLengthOption func(*TitleLengthJob)

// WithMaxTitleLength overrides MaxTitleLength. Non-positive values are ignored.
func WithMaxTitleLength(n int) TitleLengthOption {
	return func(j *TitleLengthJob) {
		if n > 0 {
			j.maxLength = n
		}
	}
}

// WithKind scans a different record kind.
func WithKind(kind string) TitleLengthOption {
	return func(j *TitleLengthJob) {
		if kind != "" {
			j.kind = kind
		}
	}
}

// NewTitleLengthJob creates the job with the default limit and kind.
func NewTitleLengthJob(opts ...TitleLengthOption) *TitleLengthJob {
	job := &TitleLengthJob{
		maxLength: MaxTitleLength,
		kind:      record.KindExploration,
	}

	for _, opt := range opts {
		opt(job)
	}

	return job
}

// Name implements Job.
func (j *TitleLengthJob) Name() string {
	return TitleLengthJobName
}

// Description implements Job.
func (j *TitleLengthJob) Description() string {
	return fmt.Sprintf("Count %s records whose title is longer than %d characters", j.kind, j.maxLength)
}

// MaxLength returns the active title limit.
func (j *TitleLengthJob) MaxLength() int {
	return j.maxLength
}

// Run implements Job.
func (j *TitleLengthJob) Run(ctx context.Context, src record.Lister) (Output, error) {
	records, err := src.List(ctx, j.kind)
	if err != nil {
		return Output{}, fmt.Errorf("list %s: %w", j.kind, err)
	}

	results := ValidateTitles(records, j.maxLength)

	return Output{
		Results:  results,
		Examined: len(records),
		Invalid:  countStream(results, Stderr),
	}, nil
}

// ValidateTitles reports the number of records, the number whose title is
// longer than maxLength and one diagnostic per offender, in input order.
// No records yields no results.
func ValidateTitles(records []record.Record, maxLength int) []Result {
	if len(records) == 0 {
		return nil
	}

	var diagnostics []Result

	for _, rec := range records {
		length := rec.TitleLength()
		if length > maxLength {
			diagnostics = append(diagnostics, AsStderr(
				fmt.Sprintf("The id of exp is %s and its actual len is %d", rec.ID, length)))
		}
	}

	results := make([]Result, 0, len(diagnostics)+2)
	results = append(results, AsStdout(fmt.Sprintf("EXPS SUCCESS: %d", len(records))))

	if len(diagnostics) > 0 {
		results = append(results, AsStdout(fmt.Sprintf("INVALID SUCCESS: %d", len(diagnostics))))
		results = append(results, diagnostics...)
	}

	return results
}

func countStream(results []Result, stream Stream) int {
	n := 0

	for _, res := range results {
		if res.Stream == stream {
			n++
		}
	}

	return n
}

// Package jobs runs one-shot batch computations over stored records and
// collects their reportable output.
package jobs

// Stream tags a result line as informational or diagnostic.
type Stream int

const (
	// Stdout carries aggregate, informational lines.
	Stdout Stream = iota
	// Stderr carries per-record diagnostic lines.
	Stderr
)

// String returns "stdout" or "stderr".
func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}

	return "stdout"
}

// Result is one line of job output.
type Result struct {
	Stream Stream
	Text   string
}

// AsStdout builds an informational result.
func AsStdout(text string) Result {
	return Result{Stream: Stdout, Text: text}
}

// AsStderr builds a diagnostic result.
func AsStderr(text string) Result {
	return Result{Stream: Stderr, Text: text}
}

// Output is what a job returns: the ordered result lines plus the counts the
// runner reports as metrics.
type Output struct {
	Results  []Result
	Examined int
	Invalid  int
}

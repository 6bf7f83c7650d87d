package indexyaml

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Sumatoshi-tech/dsmaint/pkg/persist"
)

// ExtendOptions control Extend.
type ExtendOptions struct {
	// DryRun computes the change and its diff without writing.
	DryRun bool
}

// Outcome describes what Extend did.
type Outcome struct {
	// Added lists the entries appended to the base document.
	Added []Index
	// Written is true when the base file was replaced.
	Written bool
	// Bytes is the size of the new document when one was produced.
	Bytes int
	// Diff is a line diff of the base file, filled on dry runs.
	Diff string
}

// Extend appends to the document at basePath every entry of the document at
// candidatePath that it does not already hold, ignoring property order.
// Nothing is written when the candidate is empty or adds nothing. Any read or
// parse failure aborts before writing.
func Extend(ctx context.Context, basePath, candidatePath string, opts ExtendOptions) (Outcome, error) {
	_, span := otel.Tracer("dsmaint/indexyaml").Start(ctx, "indexyaml.extend")
	defer span.End()

	original, err := os.ReadFile(basePath)
	if err != nil {
		return Outcome{}, fmt.Errorf("read %s: %w", basePath, err)
	}

	base, err := Parse(original)
	if err != nil {
		return Outcome{}, fmt.Errorf("parse %s: %w", basePath, err)
	}

	candidate, err := Load(candidatePath)
	if err != nil {
		return Outcome{}, err
	}

	span.SetAttributes(
		attribute.Int("index.base_entries", base.Len()),
		attribute.Int("index.candidate_entries", candidate.Len()),
	)

	if candidate.Len() == 0 {
		return Outcome{}, nil
	}

	merged, added, err := Merge(base, candidate)
	if err != nil {
		return Outcome{}, err
	}

	if merged == nil {
		return Outcome{}, nil
	}

	data, err := merged.Encode()
	if err != nil {
		return Outcome{}, err
	}

	span.SetAttributes(attribute.Int("index.added_entries", len(added)))

	outcome := Outcome{Added: added, Bytes: len(data)}

	if opts.DryRun {
		outcome.Diff = LineDiff(string(original), string(data))

		return outcome, nil
	}

	writeErr := persist.WriteFileAtomic(basePath, data)
	if writeErr != nil {
		return Outcome{}, fmt.Errorf("write %s: %w", basePath, writeErr)
	}

	outcome.Written = true

	return outcome, nil
}

// LineDiff renders the changed lines between before and after, prefixed with
// "-" or "+".
func LineDiff(before, after string) string {
	dmp := diffmatchpatch.New()

	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(beforeChars, afterChars, false), lineArray)

	var sb strings.Builder

	for _, diff := range diffs {
		var prefix string

		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffEqual:
			continue
		}

		for line := range strings.Lines(diff.Text) {
			sb.WriteString(prefix)
			sb.WriteString(line)

			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}

	return sb.String()
}

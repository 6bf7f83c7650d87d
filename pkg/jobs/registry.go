package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Sumatoshi-tech/dsmaint/pkg/record"
)

// Registry errors.
var (
	ErrUnknownJob   = errors.New("unknown job")
	ErrDuplicateJob = errors.New("job already registered")
)

// Job is a one-shot batch computation over the records a Lister exposes.
type Job interface {
	// Name returns the unique, machine-readable job name.
	Name() string

	// Description returns a one-line human description.
	Description() string

	// Run reads from src and returns the ordered result lines.
	Run(ctx context.Context, src record.Lister) (Output, error)
}

// Registry maps job names to jobs.
type Registry struct {
	jobs map[string]Job
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]Job)}
}

// Register adds a job. Names must be unique.
func (r *Registry) Register(job Job) error {
	if _, ok := r.jobs[job.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name())
	}

	r.jobs[job.Name()] = job

	return nil
}

// Get returns the job with the given name.
func (r *Registry) Get(name string) (Job, error) {
	job, ok := r.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	return job, nil
}

// Jobs returns every registered job sorted by name.
func (r *Registry) Jobs() []Job {
	out := make([]Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })

	return out
}

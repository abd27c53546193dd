package cron

import "context"

// Job is a scheduled task executed by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs a worker executes each cycle, in registration
// order.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry from the provided jobs, skipping nils.
func NewRegistry(jobs ...Job) *Registry {
	reg := &Registry{}
	for _, job := range jobs {
		reg.Register(job)
	}
	return reg
}

// Register appends a job. Nil jobs are ignored.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}

package jobs

import "context"

// Store defines persistence operations for background jobs. The default
// implementation is an in-process map; a Redis-backed implementation exists
// for deployments that need jobs to survive a process restart.
type Store interface {
	Create(ctx context.Context, job Job) error
	Get(ctx context.Context, jobID string) (Job, error)
	Update(ctx context.Context, jobID string, update Update) error
}

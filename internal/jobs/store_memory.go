package jobs

import (
	"context"
	"sync"
	"time"
)

// MemoryStore stores jobs in memory and is safe for concurrent use. Jobs are
// never evicted; the map lives for the process lifetime.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Job
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Job)}
}

// Create stores the job.
func (s *MemoryStore) Create(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = job.CreatedAt
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[job.ID] = job
	return nil
}

// Get returns a job by its ID.
func (s *MemoryStore) Get(ctx context.Context, jobID string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.byID[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

// Update applies a partial update to an existing job.
func (s *MemoryStore) Update(ctx context.Context, jobID string, update Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.byID[jobID]
	if !ok {
		return ErrNotFound
	}
	job.apply(update)
	s.byID[jobID] = job
	return nil
}

var _ Store = (*MemoryStore)(nil)

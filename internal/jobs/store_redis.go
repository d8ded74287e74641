package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisJobTTL = 24 * time.Hour

// RedisStore persists jobs in Redis with a 24h TTL, for deployments where job
// state must survive a process restart or be shared across instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis using the given URL and verifies the
// connection with a ping.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func jobKey(jobID string) string { return "audit:job:" + jobID }

// Create stores the job.
func (s *RedisStore) Create(ctx context.Context, job Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = job.CreatedAt
	}
	return s.put(ctx, job)
}

// Get returns a job by its ID.
func (s *RedisStore) Get(ctx context.Context, jobID string) (Job, error) {
	raw, err := s.client.Get(ctx, jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("redis get: %w", err)
	}
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return Job{}, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return job, nil
}

// Update applies a partial update to an existing job.
func (s *RedisStore) Update(ctx context.Context, jobID string, update Update) error {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	job.apply(update)
	return s.put(ctx, job)
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) put(ctx context.Context, job Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	if err := s.client.Set(ctx, jobKey(job.ID), raw, redisJobTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)

package jobs

import (
	"errors"
	"time"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ErrNotFound is returned when a job identifier is unknown.
var ErrNotFound = errors.New("job not found")

// Job tracks one background pipeline run. Result holds the terminal report on
// completion; Error holds a user-facing message on failure.
type Job struct {
	ID        string    `json:"job_id"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage,omitempty"`
	FileName  string    `json:"filename,omitempty"`
	Result    any       `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Update describes a partial, last-writer-wins mutation of a job. Nil fields
// are left untouched.
type Update struct {
	Status *string
	Stage  *string
	Result any
	Error  *string
}

func (j *Job) apply(u Update) {
	if u.Status != nil {
		j.Status = *u.Status
	}
	if u.Stage != nil {
		j.Stage = *u.Stage
	}
	if u.Result != nil {
		j.Result = u.Result
	}
	if u.Error != nil {
		j.Error = *u.Error
	}
	j.UpdatedAt = time.Now().UTC()
}

// StrPtr is a convenience for building partial updates.
func StrPtr(s string) *string { return &s }

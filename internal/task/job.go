// Package task runs pipeline jobs detached from the request that triggered them.
package task

import (
	"time"
)

// Kind names a registered job handler.
type Kind string

// Job kinds
const (
	KindUpsert    Kind = "upsert"
	KindGetAnswer Kind = "getanswer"
)

// State is the lifecycle stage of a job.
type State string

// Job states
const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Job is the unit dispatched to a handler, in-process or over Kafka.
type Job struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Status is what the board records about a job. It never carries pipeline output.
type Status struct {
	JobID       string     `json:"job_id"`
	Kind        Kind       `json:"kind"`
	State       State      `json:"state"`
	Error       string     `json:"error,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Done reports whether the job reached a terminal state.
func (s Status) Done() bool {
	return s.State == StateSucceeded || s.State == StateFailed
}

func newStatus(job Job) Status {
	return Status{
		JobID:       job.ID,
		Kind:        job.Kind,
		State:       StatePending,
		SubmittedAt: job.SubmittedAt,
	}
}

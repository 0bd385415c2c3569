package events

import "time"

// JobEvent describes a report job lifecycle change.
type JobEvent struct {
	JobID       string     `json:"job_id"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

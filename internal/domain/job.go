package domain

import "time"

// JobStatus mirrors the task_status values reported by the remote service.
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
)

// InProgress reports whether polling should continue for this status.
func (s JobStatus) InProgress() bool {
	return s == JobStatusPending || s == JobStatusRunning
}

// Job tracks one remote generation task for the lifetime of a single call.
// It is never persisted.
//
// Lifecycle: PENDING -> RUNNING -> SUCCEEDED | FAILED
type Job struct {
	ID        string
	Status    JobStatus
	CreatedAt time.Time
}

// ImageURL is one generated image together with the prompts the service used.
type ImageURL struct {
	URL          string `json:"url"`
	OrigPrompt   string `json:"origPrompt"`
	ActualPrompt string `json:"actualPrompt"`
}

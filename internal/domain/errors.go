package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured     = errors.New("api key is not configured")
	ErrInvalidPrompt     = errors.New("invalid prompt")
	ErrSubmission        = errors.New("task submission failed")
	ErrMalformedResponse = errors.New("malformed response from image service")
	ErrPollTimeout       = errors.New("task timed out, please retry later")
	ErrEmptyResult       = errors.New("task succeeded but returned no images")
	ErrUnknownStatus     = errors.New("unknown task status")
	ErrJobFailed         = errors.New("task execution failed")
	ErrPersistence       = errors.New("failed to persist configuration")
	ErrProviderFailure   = errors.New("provider failure")
	ErrUnsupportedEvent  = errors.New("unsupported event")
	ErrTransport         = errors.New("image service unreachable")
)

// RemoteError is a non-success HTTP reply from the image service.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Unwrap maps creation failures to ErrSubmission and poll failures to
// ErrTransport.
func (e *RemoteError) Unwrap() error {
	if e.Op == OpCreateTask {
		return ErrSubmission
	}
	return ErrTransport
}

const (
	OpCreateTask = "create task"
	OpFetchTask  = "fetch task"
)

// JobFailedError carries the reason the remote service gave for a FAILED task.
type JobFailedError struct {
	TaskID string
	Reason string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrJobFailed.Error(), e.Reason)
}

func (e *JobFailedError) Unwrap() error { return ErrJobFailed }

// UnknownStatusError is returned for any task_status outside the documented set.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownStatus.Error(), e.Status)
}

func (e *UnknownStatusError) Unwrap() error { return ErrUnknownStatus }

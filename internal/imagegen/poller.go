package imagegen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/infra"
	"github.com/DreamFlyCoder/plugin/internal/providers/dashscope"
)

const (
	DefaultMaxAttempts  = 60
	DefaultPollInterval = 2 * time.Second

	defaultFailureReason = "task execution failed"
)

// TaskFetcher is the transport used to read remote task state.
type TaskFetcher interface {
	FetchTask(ctx context.Context, ep dashscope.Endpoint, taskID string) (*dashscope.TaskResponse, error)
}

// OutcomeKind classifies a single status read.
type OutcomeKind int

const (
	OutcomeInProgress OutcomeKind = iota
	OutcomeSucceeded
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return "in_progress"
	}
}

// PollOutcome is the result of one status read that produced a known state.
type PollOutcome struct {
	Kind   OutcomeKind
	Status domain.JobStatus
	Images []domain.ImageURL
	Reason string
}

// Budget bounds AwaitCompletion. It is the only cancellation mechanism the
// remote side offers: a submitted task cannot be aborted.
type Budget struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultBudget is 60 attempts two seconds apart.
func DefaultBudget() Budget {
	return Budget{MaxAttempts: DefaultMaxAttempts, Interval: DefaultPollInterval}
}

func (b Budget) normalized() Budget {
	if b.MaxAttempts <= 0 {
		b.MaxAttempts = DefaultMaxAttempts
	}
	if b.Interval < 0 {
		b.Interval = 0
	}
	return b
}

// Completion is a task that reached SUCCEEDED with at least one image.
type Completion struct {
	TaskID   string
	Images   []domain.ImageURL
	Attempts int
}

// Sleeper suspends the caller for d or until ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// JobPoller reads task state until it is terminal or the budget runs out.
type JobPoller struct {
	client TaskFetcher
	logger infra.Logger
	sleep  Sleeper
}

// NewJobPoller wires a poller on top of client. A nil sleeper uses SleepContext.
func NewJobPoller(client TaskFetcher, sleep Sleeper, logger *infra.Logger) *JobPoller {
	if sleep == nil {
		sleep = SleepContext
	}
	return &JobPoller{
		client: client,
		logger: infra.LoggerOrDiscard(logger),
		sleep:  sleep,
	}
}

// PollOnce reads the task once and classifies its state. Errors are either
// transport failures (wrapping domain.ErrTransport) or terminal shape errors:
// domain.ErrEmptyResult, domain.ErrUnknownStatus, domain.ErrMalformedResponse.
func (p *JobPoller) PollOnce(ctx context.Context, cfg domain.Config, taskID string) (PollOutcome, error) {
	resp, err := p.client.FetchTask(ctx, dashscope.EndpointFor(cfg), taskID)
	if err != nil {
		return PollOutcome{}, err
	}

	status := domain.JobStatus(strings.ToUpper(strings.TrimSpace(resp.Output.TaskStatus)))
	switch status {
	case domain.JobStatusSucceeded:
		images := lo.FilterMap(resp.Output.Results, func(r dashscope.TaskResult, _ int) (domain.ImageURL, bool) {
			url := strings.TrimSpace(r.URL)
			return domain.ImageURL{URL: url, OrigPrompt: r.OrigPrompt, ActualPrompt: r.ActualPrompt}, url != ""
		})
		if len(images) == 0 {
			return PollOutcome{}, domain.ErrEmptyResult
		}
		return PollOutcome{Kind: OutcomeSucceeded, Status: status, Images: images}, nil
	case domain.JobStatusFailed:
		reason := strings.TrimSpace(resp.Output.Message)
		if reason == "" {
			reason = defaultFailureReason
		}
		return PollOutcome{Kind: OutcomeFailed, Status: status, Reason: reason}, nil
	case domain.JobStatusPending, domain.JobStatusRunning:
		return PollOutcome{Kind: OutcomeInProgress, Status: status}, nil
	case "":
		return PollOutcome{}, fmt.Errorf("%w: task_status missing", domain.ErrMalformedResponse)
	default:
		return PollOutcome{}, &domain.UnknownStatusError{Status: string(status)}
	}
}

// AwaitCompletion polls job until SUCCEEDED, a terminal failure, or budget
// exhaustion. Transport failures consume an attempt and are retried after the
// interval; every other error is terminal. job.Status tracks the last status
// read.
func (p *JobPoller) AwaitCompletion(ctx context.Context, cfg domain.Config, job *domain.Job, budget Budget) (Completion, error) {
	if job == nil || strings.TrimSpace(job.ID) == "" {
		return Completion{}, errors.New("imagegen: job id is required")
	}
	budget = budget.normalized()
	logger := p.logger.With().Str("task_id", job.ID).Logger()

	var lastErr error
	for attempt := 1; attempt <= budget.MaxAttempts; attempt++ {
		outcome, err := p.PollOnce(ctx, cfg, job.ID)
		switch {
		case err == nil:
			lastErr = nil
			job.Status = outcome.Status
			switch outcome.Kind {
			case OutcomeSucceeded:
				logger.Info().Int("attempt", attempt).Int("images", len(outcome.Images)).Msg("imagegen: task succeeded")
				return Completion{TaskID: job.ID, Images: outcome.Images, Attempts: attempt}, nil
			case OutcomeFailed:
				job.Status = domain.JobStatusFailed
				logger.Warn().Int("attempt", attempt).Str("reason", outcome.Reason).Msg("imagegen: task failed")
				return Completion{}, &domain.JobFailedError{TaskID: job.ID, Reason: outcome.Reason}
			}
			logger.Debug().Int("attempt", attempt).Int("max_attempts", budget.MaxAttempts).Str("status", string(outcome.Status)).Msg("imagegen: task in progress")
		case ctx.Err() != nil:
			return Completion{}, ctx.Err()
		case errors.Is(err, domain.ErrTransport):
			lastErr = err
			logger.Warn().Err(err).Int("attempt", attempt).Msg("imagegen: poll attempt failed")
		default:
			job.Status = domain.JobStatusFailed
			return Completion{}, err
		}

		if attempt == budget.MaxAttempts {
			break
		}
		if err := p.sleep(ctx, budget.Interval); err != nil {
			return Completion{}, err
		}
	}

	if lastErr != nil {
		return Completion{}, fmt.Errorf("%w (%d attempts, last error: %v)", domain.ErrPollTimeout, budget.MaxAttempts, lastErr)
	}
	return Completion{}, fmt.Errorf("%w (%d attempts)", domain.ErrPollTimeout, budget.MaxAttempts)
}

package imagegen

import (
	"context"
	"strings"
	"time"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/infra"
	"github.com/DreamFlyCoder/plugin/internal/providers/dashscope"
)

// TaskCreator is the transport used to create remote tasks.
type TaskCreator interface {
	CreateTask(ctx context.Context, ep dashscope.Endpoint, req dashscope.CreateTaskRequest) (string, error)
}

// JobSubmitter builds and sends the task creation request. It never retries.
type JobSubmitter struct {
	client TaskCreator
	logger infra.Logger
	now    func() time.Time
}

// NewJobSubmitter wires a submitter on top of client.
func NewJobSubmitter(client TaskCreator, logger *infra.Logger) *JobSubmitter {
	return &JobSubmitter{
		client: client,
		logger: infra.LoggerOrDiscard(logger),
		now:    time.Now,
	}
}

// Submit creates one remote task for prompt using cfg exactly as given.
func (s *JobSubmitter) Submit(ctx context.Context, prompt string, cfg domain.Config) (domain.Job, error) {
	if !cfg.HasCredentials() {
		return domain.Job{}, domain.ErrNotConfigured
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.Job{}, domain.ErrInvalidPrompt
	}

	params, corrected := NormalizeParams(cfg.DefaultParams)
	if corrected {
		s.logger.Debug().
			Str("size", cfg.DefaultParams.Size).
			Str("clamped_size", params.Size).
			Int("n", cfg.DefaultParams.N).
			Int("clamped_n", params.N).
			Msg("imagegen: generation parameters adjusted")
	}

	taskID, err := s.client.CreateTask(ctx, dashscope.EndpointFor(cfg), dashscope.CreateTaskRequest{
		Model: cfg.Model,
		Input: dashscope.TaskInput{Prompt: prompt},
		Parameters: dashscope.TaskParameters{
			N:       params.N,
			Size:    params.Size,
			Style:   params.Style,
			Quality: params.Quality,
		},
	})
	if err != nil {
		return domain.Job{}, err
	}
	return domain.Job{ID: taskID, Status: domain.JobStatusPending, CreatedAt: s.now()}, nil
}

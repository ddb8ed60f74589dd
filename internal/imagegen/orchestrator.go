package imagegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/infra"
)

// ConfigSource owns the persisted baseline config.
type ConfigSource interface {
	Get() domain.Config
	Update(ctx context.Context, partial domain.PartialConfig) (domain.Config, error)
}

// Submitter creates remote tasks.
type Submitter interface {
	Submit(ctx context.Context, prompt string, cfg domain.Config) (domain.Job, error)
}

// Poller reads remote task state.
type Poller interface {
	PollOnce(ctx context.Context, cfg domain.Config, taskID string) (PollOutcome, error)
	AwaitCompletion(ctx context.Context, cfg domain.Config, job *domain.Job, budget Budget) (Completion, error)
}

// Notifier fans events out to UI surfaces. Implementations swallow delivery
// errors.
type Notifier interface {
	NotifyConfigChanged(ctx context.Context, cfg domain.Config)
	NotifyAll(ctx context.Context, event string, payload json.RawMessage)
}

// State is the per-call generation state.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Options wires an Orchestrator.
type Options struct {
	Config    ConfigSource
	Submitter Submitter
	Poller    Poller
	Notifier  Notifier
	Budget    Budget
	Logger    *infra.Logger
}

// Orchestrator coordinates config, submission, polling and broadcast. Each
// call works on its own config value; concurrent calls share nothing but the
// ConfigSource.
type Orchestrator struct {
	config    ConfigSource
	submitter Submitter
	poller    Poller
	notifier  Notifier
	budget    Budget
	logger    infra.Logger
}

// NewOrchestrator validates opts and builds an Orchestrator.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Config == nil {
		return nil, errors.New("imagegen: config source is required")
	}
	if opts.Submitter == nil {
		return nil, errors.New("imagegen: submitter is required")
	}
	if opts.Poller == nil {
		return nil, errors.New("imagegen: poller is required")
	}
	return &Orchestrator{
		config:    opts.Config,
		submitter: opts.Submitter,
		poller:    opts.Poller,
		notifier:  opts.Notifier,
		budget:    opts.Budget.normalized(),
		logger:    infra.LoggerOrDiscard(opts.Logger),
	}, nil
}

// Generate submits prompt and waits for the images. override is layered over
// the baseline for this call only. Generate never returns an error: every
// failure is folded into the result.
func (o *Orchestrator) Generate(ctx context.Context, prompt string, override *domain.PartialConfig) (result domain.GenerationResult) {
	cfg := o.config.Get().Overlay(override)
	state := StateIdle
	logger := o.logger.With().
		Str("request_id", infra.RequestIDFromContext(ctx)).
		Str("model", cfg.Model).
		Bool("override", override != nil).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("state", string(state)).Interface("panic", r).Msg("imagegen: generate panicked")
			result = domain.Failed(fmt.Errorf("%w: %v", domain.ErrProviderFailure, r))
		}
	}()

	state = o.transition(logger, state, StateSubmitting)
	job, err := o.submitter.Submit(ctx, prompt, cfg)
	if err != nil {
		o.transition(logger, state, StateFailed)
		logger.Warn().Err(err).Msg("imagegen: submission failed")
		return domain.Failed(err)
	}

	logger = logger.With().Str("task_id", job.ID).Logger()
	state = o.transition(logger, state, StatePolling)
	completion, err := o.poller.AwaitCompletion(ctx, cfg, &job, o.budget)
	if err != nil {
		o.transition(logger, state, StateFailed)
		logger.Warn().Err(err).Str("job_status", string(job.Status)).Msg("imagegen: polling failed")
		return domain.Failed(err)
	}

	state = o.transition(logger, state, StateSucceeded)
	return domain.Succeeded(completion.TaskID, prompt, completion.Images)
}

// TestConnection runs a full generation to verify credentials and model.
func (o *Orchestrator) TestConnection(ctx context.Context, prompt string, override *domain.PartialConfig) domain.GenerationResult {
	if strings.TrimSpace(prompt) == "" {
		prompt = "test"
	}
	return o.Generate(ctx, prompt, override)
}

// CreateTask only submits the task and returns its id.
func (o *Orchestrator) CreateTask(ctx context.Context, prompt string, override *domain.PartialConfig) (domain.Job, error) {
	return o.submitter.Submit(ctx, prompt, o.config.Get().Overlay(override))
}

// PollTask reads a task once.
func (o *Orchestrator) PollTask(ctx context.Context, taskID string, override *domain.PartialConfig) (PollOutcome, error) {
	cfg := o.config.Get().Overlay(override)
	if !cfg.HasCredentials() {
		return PollOutcome{}, domain.ErrNotConfigured
	}
	if strings.TrimSpace(taskID) == "" {
		return PollOutcome{}, fmt.Errorf("%w: task id is required", domain.ErrMalformedResponse)
	}
	return o.poller.PollOnce(ctx, cfg, taskID)
}

// GetConfig returns the baseline config.
func (o *Orchestrator) GetConfig() domain.Config {
	return o.config.Get()
}

// UpdateConfig merges partial into the baseline and notifies listeners once
// the change is durable.
func (o *Orchestrator) UpdateConfig(ctx context.Context, partial domain.PartialConfig) (domain.Config, error) {
	cfg, err := o.config.Update(ctx, partial)
	if err != nil {
		return cfg, err
	}
	if o.notifier != nil {
		o.notifier.NotifyConfigChanged(ctx, cfg)
	}
	return cfg, nil
}

// Forward relays a UI event to every listener.
func (o *Orchestrator) Forward(ctx context.Context, event string, payload json.RawMessage) error {
	if !domain.ForwardableEvent(event) {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedEvent, event)
	}
	if o.notifier != nil {
		o.notifier.NotifyAll(ctx, event, payload)
	}
	return nil
}

func (o *Orchestrator) transition(logger infra.Logger, from, to State) State {
	logger.Debug().Str("from", string(from)).Str("to", string(to)).Msg("imagegen: state change")
	return to
}

package imagegen

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/providers/dashscope"
)

type fetchStep struct {
	resp *dashscope.TaskResponse
	err  error
}

// fakeRemote scripts the image service. Once the script is exhausted the last
// step repeats.
type fakeRemote struct {
	mu sync.Mutex

	taskID    string
	createErr error
	creates   []dashscope.CreateTaskRequest
	endpoints []dashscope.Endpoint

	steps   []fetchStep
	fetches int
	panicOn bool
}

func (f *fakeRemote) CreateTask(_ context.Context, ep dashscope.Endpoint, req dashscope.CreateTaskRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn {
		panic("boom")
	}
	f.creates = append(f.creates, req)
	f.endpoints = append(f.endpoints, ep)
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.taskID == "" {
		return "task-1", nil
	}
	return f.taskID, nil
}

func (f *fakeRemote) FetchTask(_ context.Context, ep dashscope.Endpoint, _ string) (*dashscope.TaskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endpoints = append(f.endpoints, ep)
	idx := f.fetches
	f.fetches++
	if len(f.steps) == 0 {
		return taskStatus("PENDING"), nil
	}
	if idx >= len(f.steps) {
		idx = len(f.steps) - 1
	}
	step := f.steps[idx]
	return step.resp, step.err
}

func (f *fakeRemote) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

func (f *fakeRemote) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func taskStatus(s string, urls ...string) *dashscope.TaskResponse {
	resp := &dashscope.TaskResponse{Output: dashscope.TaskOutput{TaskStatus: s}}
	for _, u := range urls {
		resp.Output.Results = append(resp.Output.Results, dashscope.TaskResult{URL: u, OrigPrompt: "p", ActualPrompt: "p+"})
	}
	return resp
}

func okStep(resp *dashscope.TaskResponse) fetchStep { return fetchStep{resp: resp} }

func errStep(err error) fetchStep { return fetchStep{err: err} }

type recordingSleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordingSleeper) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sleeps)
}

func configuredConfig() domain.Config {
	cfg := domain.DefaultConfig()
	cfg.APIKey = "sk-test-123456"
	return cfg
}

// memoryConfig is an in-memory ConfigSource.
type memoryConfig struct {
	mu        sync.Mutex
	cfg       domain.Config
	updateErr error
}

func (m *memoryConfig) Get() domain.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

func (m *memoryConfig) Update(_ context.Context, partial domain.PartialConfig) (domain.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = m.cfg.Overlay(&partial)
	return m.cfg, m.updateErr
}

type notification struct {
	event   string
	payload string
	config  *domain.Config
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (r *recordingNotifier) NotifyConfigChanged(_ context.Context, cfg domain.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notification{event: domain.EventConfigUpdated, config: &cfg})
}

func (r *recordingNotifier) NotifyAll(_ context.Context, event string, payload json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notification{event: event, payload: string(payload)})
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

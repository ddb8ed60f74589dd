package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/http/handlers"
	"github.com/DreamFlyCoder/plugin/internal/imagegen"
)

type fakeService struct {
	cfg domain.Config
}

func (f *fakeService) Generate(context.Context, string, *domain.PartialConfig) domain.GenerationResult {
	return domain.Failed(domain.ErrNotConfigured)
}

func (f *fakeService) TestConnection(ctx context.Context, prompt string, o *domain.PartialConfig) domain.GenerationResult {
	return f.Generate(ctx, prompt, o)
}

func (f *fakeService) CreateTask(context.Context, string, *domain.PartialConfig) (domain.Job, error) {
	return domain.Job{ID: "task-1", Status: domain.JobStatusPending}, nil
}

func (f *fakeService) PollTask(_ context.Context, id string, _ *domain.PartialConfig) (imagegen.PollOutcome, error) {
	return imagegen.PollOutcome{Kind: imagegen.OutcomeInProgress, Status: domain.JobStatusRunning}, nil
}

func (f *fakeService) GetConfig() domain.Config { return f.cfg }

func (f *fakeService) UpdateConfig(_ context.Context, p domain.PartialConfig) (domain.Config, error) {
	f.cfg = f.cfg.Overlay(&p)
	return f.cfg, nil
}

func (f *fakeService) Forward(context.Context, string, json.RawMessage) error { return nil }

func newTestServer(t *testing.T, rateLimit int) *httptest.Server {
	t.Helper()
	app := handlers.NewApp(&fakeService{cfg: domain.DefaultConfig()}, nil, nil)
	srv := httptest.NewServer(NewRouter(app, Options{
		AllowedOrigins:  []string{"chrome-extension://*"},
		DefaultLocale:   "en",
		RateLimitPerMin: rateLimit,
		Logger:          zerolog.Nop(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t, 100)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{method: http.MethodGet, path: "/v1/healthz", status: http.StatusOK},
		{method: http.MethodGet, path: "/v1/ping", status: http.StatusOK},
		{method: http.MethodGet, path: "/v1/openapi.json", status: http.StatusOK},
		{method: http.MethodGet, path: "/v1/config", status: http.StatusOK},
		{method: http.MethodPut, path: "/v1/config", body: `{"model":"wanx-v1"}`, status: http.StatusOK},
		{method: http.MethodPost, path: "/v1/generate", body: `{"prompt":"x"}`, status: http.StatusOK},
		{method: http.MethodPost, path: "/v1/config/test", status: http.StatusOK},
		{method: http.MethodPost, path: "/v1/tasks", body: `{"prompt":"x"}`, status: http.StatusAccepted},
		{method: http.MethodGet, path: "/v1/tasks/task-1", status: http.StatusOK},
		{method: http.MethodPost, path: "/v1/events/configUpdated", body: `{}`, status: http.StatusOK},
		{method: http.MethodGet, path: "/v1/events", status: http.StatusNotImplemented},
		{method: http.MethodGet, path: "/v1/unknown", status: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			req, err := http.NewRequest(tc.method, srv.URL+tc.path, body)
			if err != nil {
				t.Fatalf("build request: %v", err)
			}
			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatalf("do request: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
			if resp.Header.Get("X-Request-ID") == "" {
				t.Fatalf("missing request id header")
			}
		})
	}
}

func TestGenerateIsRateLimited(t *testing.T) {
	srv := newTestServer(t, 1)

	statuses := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		resp, err := srv.Client().Post(srv.URL+"/v1/generate", "application/json", strings.NewReader(`{"prompt":"x"}`))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}
	if statuses[0] != http.StatusOK || statuses[1] != http.StatusTooManyRequests {
		t.Fatalf("statuses = %v", statuses)
	}
}

func TestLocalizedFailure(t *testing.T) {
	srv := newTestServer(t, 100)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/generate", strings.NewReader(`{"prompt":"x"}`))
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["error"] != "请先配置API密钥" || out["code"] != "not_configured" {
		t.Fatalf("unexpected body %v", out)
	}
}

func TestCORSForExtensionOrigin(t *testing.T) {
	srv := newTestServer(t, 100)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/config", nil)
	req.Header.Set("Origin", "chrome-extension://abc")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "chrome-extension://abc" {
		t.Fatalf("allow origin = %q", got)
	}
}

package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/infra"
)

const (
	synthesisPath = "/services/aigc/text2image/image-synthesis"
	tasksPath     = "/tasks/"

	// maxErrorBody caps how much of a failed response is kept in errors.
	maxErrorBody = 2048
)

// Options configures the DashScope client.
type Options struct {
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the DashScope asynchronous text-to-image API.
// Credentials travel with each call so overlays never share state.
type Client struct {
	httpClient *http.Client
	logger     infra.Logger
}

// Endpoint identifies the service root and credential for one call.
type Endpoint struct {
	BaseURL string
	APIKey  string
}

// EndpointFor derives an Endpoint from a config value.
func EndpointFor(cfg domain.Config) Endpoint {
	return Endpoint{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey}
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: httpClient,
		logger:     infra.LoggerOrDiscard(opts.Logger),
	}
}

// CreateTask submits an asynchronous synthesis task and returns its id.
func (c *Client) CreateTask(ctx context.Context, ep Endpoint, req CreateTaskRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("dashscope: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, serviceRoot(ep.BaseURL)+synthesisPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("dashscope: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-DashScope-Async", "enable")

	raw, err := c.do(httpReq, ep, domain.OpCreateTask)
	if err != nil {
		return "", err
	}

	var decoded CreateTaskResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	taskID := strings.TrimSpace(decoded.Output.TaskID)
	if taskID == "" {
		return "", fmt.Errorf("%w: task_id missing", domain.ErrMalformedResponse)
	}
	c.logger.Debug().
		Str("model", req.Model).
		Str("task_id", taskID).
		Str("request_id", infra.RequestIDFromContext(ctx)).
		Str("remote_request_id", decoded.RequestID).
		Msg("dashscope: task created")
	return taskID, nil
}

// FetchTask reads the current state of a task.
func (c *Client) FetchTask(ctx context.Context, ep Endpoint, taskID string) (*TaskResponse, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, errors.New("dashscope: task id is required")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, serviceRoot(ep.BaseURL)+tasksPath+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, fmt.Errorf("dashscope: build request: %w", err)
	}

	raw, err := c.do(httpReq, ep, domain.OpFetchTask)
	if err != nil {
		return nil, err
	}

	var decoded TaskResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return &decoded, nil
}

// Download fetches a generated image. Result URLs are pre-signed, so no
// credential is attached.
func (c *Client) Download(ctx context.Context, imageURL string) ([]byte, string, error) {
	parsed, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || parsed.Scheme == "" {
		return nil, "", fmt.Errorf("dashscope: invalid image url: %s", imageURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("dashscope: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("dashscope: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("dashscope: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("dashscope: read image: %w", err)
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "image/png"
	}
	return data, format, nil
}

func (c *Client) do(req *http.Request, ep Endpoint, op string) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(ep.APIKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dashscope: %s: %w: %v", op, domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dashscope: %s: read response: %w: %v", op, domain.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().
			Str("op", op).
			Str("request_id", infra.RequestIDFromContext(req.Context())).
			Int("status", resp.StatusCode).
			Msg("dashscope: non-success response")
		return nil, &domain.RemoteError{Op: op, StatusCode: resp.StatusCode, Body: errorBody(raw)}
	}
	return raw, nil
}

// serviceRoot accepts either the API root or the full synthesis endpoint, which
// is what older configs stored as baseUrl.
func serviceRoot(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = domain.DefaultBaseURL
	}
	base = strings.TrimSuffix(base, synthesisPath)
	return base
}

func errorBody(raw []byte) string {
	var detail errorResponse
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Message != "" {
		if detail.Code != "" {
			return fmt.Sprintf("%s (%s)", detail.Message, detail.Code)
		}
		return detail.Message
	}
	body := strings.TrimSpace(string(raw))
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return body
}

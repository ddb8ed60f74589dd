package dashscope

// CreateTaskRequest is the body of the synthesis endpoint.
type CreateTaskRequest struct {
	Model      string         `json:"model"`
	Input      TaskInput      `json:"input"`
	Parameters TaskParameters `json:"parameters"`
}

type TaskInput struct {
	Prompt string `json:"prompt"`
}

type TaskParameters struct {
	N       int    `json:"n"`
	Size    string `json:"size"`
	Style   string `json:"style,omitempty"`
	Quality string `json:"quality,omitempty"`
}

// CreateTaskResponse is returned when a task was accepted.
type CreateTaskResponse struct {
	Output struct {
		TaskID     string `json:"task_id"`
		TaskStatus string `json:"task_status"`
	} `json:"output"`
	RequestID string `json:"request_id"`
}

// TaskResponse is the status endpoint body.
type TaskResponse struct {
	Output    TaskOutput `json:"output"`
	RequestID string     `json:"request_id"`
}

type TaskOutput struct {
	TaskID     string       `json:"task_id"`
	TaskStatus string       `json:"task_status"`
	Results    []TaskResult `json:"results,omitempty"`
	Code       string       `json:"code,omitempty"`
	Message    string       `json:"message,omitempty"`
}

// TaskResult is one generated image. Entries that failed individually carry
// Code/Message and no URL.
type TaskResult struct {
	URL          string `json:"url,omitempty"`
	OrigPrompt   string `json:"orig_prompt,omitempty"`
	ActualPrompt string `json:"actual_prompt,omitempty"`
	Code         string `json:"code,omitempty"`
	Message      string `json:"message,omitempty"`
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

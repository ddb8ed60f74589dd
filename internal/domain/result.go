package domain

// GenerationResult is the uniform reply of a generate call. Success and
// failure shapes are exclusive; build it with Succeeded or Failed.
type GenerationResult struct {
	Success   bool       `json:"success"`
	ImageURLs []ImageURL `json:"imageUrls,omitempty"`
	Count     int        `json:"count,omitempty"`
	TaskID    string     `json:"taskId,omitempty"`
	Prompt    string     `json:"prompt,omitempty"`
	Error     string     `json:"error,omitempty"`

	// Err keeps the typed cause so transports can localize the message.
	Err error `json:"-"`
}

// Succeeded builds the success shape.
func Succeeded(taskID, prompt string, images []ImageURL) GenerationResult {
	return GenerationResult{
		Success:   true,
		ImageURLs: images,
		Count:     len(images),
		TaskID:    taskID,
		Prompt:    prompt,
	}
}

// Failed builds the failure shape from err.
func Failed(err error) GenerationResult {
	if err == nil {
		err = ErrProviderFailure
	}
	return GenerationResult{Success: false, Error: err.Error(), Err: err}
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/DreamFlyCoder/plugin/internal/domain"
)

const (
	codeBadRequest       = "bad_request"
	codeNotConfigured    = "not_configured"
	codeInvalidPrompt    = "invalid_prompt"
	codeSubmission       = "submission_failed"
	codeMalformed        = "malformed_response"
	codeUnreachable      = "service_unreachable"
	codeTimeout          = "timeout"
	codeCancelled        = "cancelled"
	codeEmptyResult      = "empty_result"
	codeUnknownStatus    = "unknown_status"
	codeJobFailed        = "job_failed"
	codePersistence      = "persistence_failed"
	codeUnsupportedEvent = "unsupported_event"
	codeStreaming        = "streaming_unsupported"
	codeInternal         = "internal"
)

var messages = map[string]map[string]string{
	codeBadRequest:       {"en": "Invalid request body", "zh": "请求格式错误"},
	codeNotConfigured:    {"en": "Please configure your API key first", "zh": "请先配置API密钥"},
	codeInvalidPrompt:    {"en": "Prompt must not be empty", "zh": "提示词不能为空"},
	codeSubmission:       {"en": "Failed to submit task", "zh": "任务提交失败"},
	codeMalformed:        {"en": "Unexpected response from image service", "zh": "图像服务返回格式异常"},
	codeUnreachable:      {"en": "Image service is unreachable", "zh": "无法连接图像服务"},
	codeTimeout:          {"en": "Task timed out, please retry later", "zh": "任务超时，请稍后重试"},
	codeCancelled:        {"en": "Request was cancelled", "zh": "请求已取消"},
	codeEmptyResult:      {"en": "Task finished without images", "zh": "任务完成但未返回图片"},
	codeUnknownStatus:    {"en": "Unknown task status", "zh": "未知任务状态"},
	codeJobFailed:        {"en": "Task execution failed", "zh": "任务执行失败"},
	codePersistence:      {"en": "Failed to save configuration", "zh": "配置保存失败"},
	codeUnsupportedEvent: {"en": "Unsupported event", "zh": "不支持的事件"},
	codeStreaming:        {"en": "Streaming is not supported", "zh": "不支持流式传输"},
	codeInternal:         {"en": "Internal error", "zh": "内部错误"},
}

// message returns the localized text for code, with detail appended.
func message(locale, code, detail string) string {
	texts, ok := messages[code]
	if !ok {
		texts = messages[codeInternal]
	}
	text, ok := texts[locale]
	if !ok {
		text = texts["en"]
	}
	if detail != "" {
		return text + ": " + detail
	}
	return text
}

// statusClientClosedRequest is the de facto status for a request abandoned
// by its client.
const statusClientClosedRequest = 499

// classify maps domain errors onto a response code, an HTTP status and the
// remote detail worth showing to the user.
func classify(err error) (string, int, string) {
	var failed *domain.JobFailedError
	var remote *domain.RemoteError
	var unknown *domain.UnknownStatusError
	switch {
	case err == nil:
		return codeInternal, http.StatusInternalServerError, ""
	case errors.Is(err, domain.ErrNotConfigured):
		return codeNotConfigured, http.StatusPreconditionFailed, ""
	case errors.Is(err, domain.ErrInvalidPrompt):
		return codeInvalidPrompt, http.StatusBadRequest, ""
	case errors.As(err, &failed):
		return codeJobFailed, http.StatusBadGateway, failed.Reason
	case errors.As(err, &remote) && remote.Op == domain.OpCreateTask:
		return codeSubmission, http.StatusBadGateway, remote.Body
	case errors.Is(err, domain.ErrPollTimeout):
		return codeTimeout, http.StatusGatewayTimeout, ""
	case errors.As(err, &remote):
		return codeUnreachable, http.StatusBadGateway, remote.Body
	case errors.Is(err, domain.ErrTransport):
		return codeUnreachable, http.StatusBadGateway, ""
	case errors.Is(err, domain.ErrMalformedResponse):
		return codeMalformed, http.StatusBadGateway, ""
	case errors.Is(err, domain.ErrEmptyResult):
		return codeEmptyResult, http.StatusBadGateway, ""
	case errors.As(err, &unknown):
		return codeUnknownStatus, http.StatusBadGateway, unknown.Status
	case errors.Is(err, domain.ErrPersistence):
		return codePersistence, http.StatusInternalServerError, ""
	case errors.Is(err, domain.ErrUnsupportedEvent):
		return codeUnsupportedEvent, http.StatusBadRequest, ""
	case errors.Is(err, context.DeadlineExceeded):
		return codeTimeout, http.StatusGatewayTimeout, ""
	case errors.Is(err, context.Canceled):
		return codeCancelled, statusClientClosedRequest, ""
	default:
		return codeInternal, http.StatusInternalServerError, ""
	}
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/imagegen"
	"github.com/DreamFlyCoder/plugin/internal/middleware"
)

type taskResponse struct {
	Success   bool              `json:"success"`
	TaskID    string            `json:"taskId"`
	Status    domain.JobStatus  `json:"status"`
	ImageURLs []domain.ImageURL `json:"imageUrls,omitempty"`
	Count     int               `json:"count,omitempty"`
	Code      string            `json:"code,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// CreateTask submits a task without waiting for it.
func (a *App) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decode(r, &req); err != nil {
		a.error(w, r, http.StatusBadRequest, codeBadRequest)
		return
	}
	job, err := a.Service.CreateTask(r.Context(), req.Prompt, req.Config)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, taskResponse{Success: true, TaskID: job.ID, Status: job.Status})
}

// TaskStatus reads a task once. success is only true once images exist.
func (a *App) TaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimSpace(chi.URLParam(r, "id"))
	if taskID == "" {
		a.error(w, r, http.StatusBadRequest, codeBadRequest)
		return
	}
	outcome, err := a.Service.PollTask(r.Context(), taskID, nil)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp := taskResponse{TaskID: taskID, Status: outcome.Status}
	switch outcome.Kind {
	case imagegen.OutcomeSucceeded:
		resp.Success = true
		resp.ImageURLs = outcome.Images
		resp.Count = len(outcome.Images)
	case imagegen.OutcomeFailed:
		resp.Code = codeJobFailed
		resp.Error = message(middleware.LocaleFromContext(r.Context()), codeJobFailed, outcome.Reason)
	}
	a.json(w, http.StatusOK, resp)
}

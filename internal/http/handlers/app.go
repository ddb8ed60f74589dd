package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/DreamFlyCoder/plugin/internal/broadcast"
	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/imagegen"
	"github.com/DreamFlyCoder/plugin/internal/infra"
	"github.com/DreamFlyCoder/plugin/internal/middleware"
)

// Service is the generation surface the handlers drive.
type Service interface {
	Generate(ctx context.Context, prompt string, override *domain.PartialConfig) domain.GenerationResult
	TestConnection(ctx context.Context, prompt string, override *domain.PartialConfig) domain.GenerationResult
	CreateTask(ctx context.Context, prompt string, override *domain.PartialConfig) (domain.Job, error)
	PollTask(ctx context.Context, taskID string, override *domain.PartialConfig) (imagegen.PollOutcome, error)
	GetConfig() domain.Config
	UpdateConfig(ctx context.Context, partial domain.PartialConfig) (domain.Config, error)
	Forward(ctx context.Context, event string, payload json.RawMessage) error
}

// EventSource streams broadcast events to connected UI surfaces.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan broadcast.Event, error)
}

type App struct {
	Service Service
	Events  EventSource
	Logger  infra.Logger
	Version string
}

func NewApp(service Service, events EventSource, logger *infra.Logger) *App {
	return &App{
		Service: service,
		Events:  events,
		Logger:  infra.LoggerOrDiscard(logger),
		Version: "dev",
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code string) {
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, status, errorResponse{Code: code, Error: message(locale, code, "")})
}

// fail maps err to a status and a localized message.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, status, detail := classify(err)
	if status >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Str("code", code).Msg("request failed")
	}
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, status, errorResponse{Code: code, Error: message(locale, code, detail)})
}

// decode reads a JSON body. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

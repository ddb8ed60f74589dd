package handlers

import (
	"net/http"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/middleware"
)

type generateRequest struct {
	Prompt string                `json:"prompt"`
	Config *domain.PartialConfig `json:"config,omitempty"`
}

type generateResponse struct {
	domain.GenerationResult
	Code string `json:"code,omitempty"`
}

// Generate runs a full generation. Failures are reported in the body with
// status 200, like every other generation outcome.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decode(r, &req); err != nil {
		a.error(w, r, http.StatusBadRequest, codeBadRequest)
		return
	}
	result := a.Service.Generate(r.Context(), req.Prompt, req.Config)
	a.json(w, http.StatusOK, a.localizeResult(r, result))
}

// TestConnection runs a generation with a throwaway prompt so the user can
// check unsaved credentials.
func (a *App) TestConnection(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decode(r, &req); err != nil {
		a.error(w, r, http.StatusBadRequest, codeBadRequest)
		return
	}
	result := a.Service.TestConnection(r.Context(), req.Prompt, req.Config)
	a.json(w, http.StatusOK, a.localizeResult(r, result))
}

func (a *App) localizeResult(r *http.Request, result domain.GenerationResult) generateResponse {
	if result.Success {
		return generateResponse{GenerationResult: result}
	}
	code, _, detail := classify(result.Err)
	result.Error = message(middleware.LocaleFromContext(r.Context()), code, detail)
	return generateResponse{GenerationResult: result, Code: code}
}

package handlers

import (
	"net/http"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/settings"
)

type configResponse struct {
	Success    bool               `json:"success"`
	Config     domain.Config      `json:"config"`
	Configured bool               `json:"configured"`
	Warnings   []settings.Warning `json:"warnings,omitempty"`
}

// GetConfig returns the baseline with the api key redacted.
func (a *App) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := a.Service.GetConfig()
	a.json(w, http.StatusOK, configResponse{
		Success:    true,
		Config:     cfg.Redacted(),
		Configured: cfg.HasCredentials(),
		Warnings:   settings.Validate(cfg),
	})
}

// UpdateConfig merges the body into the baseline.
func (a *App) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var partial domain.PartialConfig
	if err := decode(r, &partial); err != nil {
		a.error(w, r, http.StatusBadRequest, codeBadRequest)
		return
	}
	// A form that echoes the redacted key back must not overwrite the real one.
	if partial.APIKey != nil {
		current := a.Service.GetConfig()
		if current.HasCredentials() && *partial.APIKey == current.Redacted().APIKey {
			partial.APIKey = nil
		}
	}
	cfg, err := a.Service.UpdateConfig(r.Context(), partial)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, configResponse{
		Success:    true,
		Config:     cfg.Redacted(),
		Configured: cfg.HasCredentials(),
		Warnings:   settings.Validate(cfg),
	})
}

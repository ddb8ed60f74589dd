package handlers

import (
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ping answers the UI liveness check.
func (a *App) Ping(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "pong",
		"version":    a.Version,
		"configured": a.Service.GetConfig().HasCredentials(),
		"time":       time.Now().UTC(),
	})
}

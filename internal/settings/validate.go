package settings

import (
	"strings"

	"github.com/DreamFlyCoder/plugin/internal/domain"
)

// Warning is a non-fatal config problem.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate reports missing fields. It never blocks an update.
func Validate(cfg domain.Config) []Warning {
	var out []Warning
	missing := func(field string) {
		out = append(out, Warning{Field: field, Message: "missing required field " + field})
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		missing("apiKey")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		missing("model")
	}
	p := cfg.DefaultParams
	if p == (domain.GenerationParams{}) {
		missing("defaultParams")
		return out
	}
	if p.N == 0 {
		missing("defaultParams.n")
	}
	if strings.TrimSpace(p.Size) == "" {
		missing("defaultParams.size")
	}
	if strings.TrimSpace(p.Style) == "" {
		missing("defaultParams.style")
	}
	if strings.TrimSpace(p.Quality) == "" {
		missing("defaultParams.quality")
	}
	return out
}

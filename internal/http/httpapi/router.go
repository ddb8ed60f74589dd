package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/DreamFlyCoder/plugin/internal/http/handlers"
	"github.com/DreamFlyCoder/plugin/internal/infra"
	"github.com/DreamFlyCoder/plugin/internal/middleware"
)

// Options tunes the router middleware.
type Options struct {
	AllowedOrigins  []string
	DefaultLocale   string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
	Logger          infra.Logger
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/ping", app.Ping)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)

		r.Route("/config", func(r chi.Router) {
			r.Get("/", app.GetConfig)
			r.Put("/", app.UpdateConfig)
			r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/test", app.TestConnection)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
			r.Post("/generate", app.Generate)
			r.Post("/tasks", app.CreateTask)
		})
		r.Get("/tasks/{id}", app.TaskStatus)

		r.Get("/events", app.StreamEvents)
		r.Post("/events/{event}", app.ForwardEvent)
	})

	return r
}

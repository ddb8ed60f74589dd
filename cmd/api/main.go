package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/DreamFlyCoder/plugin/internal/broadcast"
	"github.com/DreamFlyCoder/plugin/internal/http/handlers"
	httpapi "github.com/DreamFlyCoder/plugin/internal/http/httpapi"
	"github.com/DreamFlyCoder/plugin/internal/imagegen"
	"github.com/DreamFlyCoder/plugin/internal/infra"
	"github.com/DreamFlyCoder/plugin/internal/infra/geoip"
	"github.com/DreamFlyCoder/plugin/internal/middleware"
	"github.com/DreamFlyCoder/plugin/internal/providers/dashscope"
	"github.com/DreamFlyCoder/plugin/internal/settings"
)

var version = "dev"

func main() {
	// .env is optional
	_ = godotenv.Load(".env", ".env.local")

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	persister, closePersister, err := settings.OpenPersister(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.SettingsBackend).Msg("failed to open settings backend")
	}
	defer closePersister()

	store := settings.NewStore(persister, settings.SeedFrom(cfg), &logger)
	if _, err := store.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("settings loaded with errors")
	}

	client := dashscope.NewClient(dashscope.Options{
		HTTPClient: &http.Client{Timeout: cfg.RemoteTimeout},
		Logger:     &logger,
	})

	events := broadcast.NewPubSub(broadcast.DefaultTopic, &logger)
	broadcaster := broadcast.New(&logger, events)
	for _, target := range cfg.ConfigWebhooks {
		hook, err := broadcast.NewWebhook(target, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("skipping webhook")
			continue
		}
		broadcaster.Register(hook)
	}

	orchestrator, err := imagegen.NewOrchestrator(imagegen.Options{
		Config:    store,
		Submitter: imagegen.NewJobSubmitter(client, &logger),
		Poller:    imagegen.NewJobPoller(client, imagegen.SleepContext, &logger),
		Notifier:  broadcaster,
		Budget:    imagegen.Budget{MaxAttempts: cfg.PollMaxAttempts, Interval: cfg.PollInterval},
		Logger:    &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build orchestrator")
	}

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		countryLookup = resolver.CountryCode
	}

	app := handlers.NewApp(orchestrator, events, &logger)
	app.Version = version
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   countryLookup,
		Logger:          logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("backend", cfg.SettingsBackend).
			Strs("listeners", broadcaster.Listeners()).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	// Let queued notifications land, then end open event streams so
	// Shutdown can return.
	broadcaster.Wait()
	if err := events.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close event stream")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

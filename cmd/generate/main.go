package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/imagegen"
	"github.com/DreamFlyCoder/plugin/internal/infra"
	"github.com/DreamFlyCoder/plugin/internal/providers/dashscope"
	"github.com/DreamFlyCoder/plugin/internal/settings"
	"github.com/DreamFlyCoder/plugin/internal/storage"
)

func main() {
	var (
		promptFlag   string
		modelFlag    string
		sizeFlag     string
		styleFlag    string
		countFlag    int
		downloadFlag bool
	)
	flag.StringVar(&promptFlag, "prompt", "", "Text prompt (required)")
	flag.StringVar(&modelFlag, "model", "", "Override the configured model for this run")
	flag.StringVar(&sizeFlag, "size", "", "Override the image size, e.g. 1024*1024")
	flag.StringVar(&styleFlag, "style", "", "Override the image style")
	flag.IntVar(&countFlag, "n", 0, "Override the number of images (1-4)")
	flag.BoolVar(&downloadFlag, "download", false, "Save the images under STORAGE_PATH")
	flag.Parse()

	if strings.TrimSpace(promptFlag) == "" {
		promptFlag = strings.Join(flag.Args(), " ")
	}
	if strings.TrimSpace(promptFlag) == "" {
		fmt.Fprintln(os.Stderr, "a prompt is required via -prompt or arguments")
		os.Exit(2)
	}

	_ = godotenv.Load(".env", ".env.local")
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "generate").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persister, closePersister, err := settings.OpenPersister(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("generate: failed to open settings backend")
	}
	defer closePersister()

	store := settings.NewStore(persister, settings.SeedFrom(cfg), &logger)
	if _, err := store.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("generate: settings loaded with errors")
	}

	client := dashscope.NewClient(dashscope.Options{
		HTTPClient: &http.Client{Timeout: cfg.RemoteTimeout},
		Logger:     &logger,
	})
	orchestrator, err := imagegen.NewOrchestrator(imagegen.Options{
		Config:    store,
		Submitter: imagegen.NewJobSubmitter(client, &logger),
		Poller:    imagegen.NewJobPoller(client, imagegen.SleepContext, &logger),
		Budget:    imagegen.Budget{MaxAttempts: cfg.PollMaxAttempts, Interval: cfg.PollInterval},
		Logger:    &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("generate: failed to build orchestrator")
	}

	result := orchestrator.Generate(ctx, promptFlag, overrideFromFlags(modelFlag, sizeFlag, styleFlag, countFlag))

	if result.Success && downloadFlag {
		files, err := storage.NewFileStore(absPath(cfg.StoragePath))
		if err != nil {
			logger.Fatal().Err(err).Msg("generate: failed to configure storage")
		}
		for i, img := range result.ImageURLs {
			key, err := saveImage(ctx, client, files, result.TaskID, img.URL, i)
			if err != nil {
				logger.Warn().Err(err).Str("task_id", result.TaskID).Int("index", i).Msg("generate: download failed")
				continue
			}
			logger.Info().Str("path", filepath.Join(files.BasePath(), key)).Msg("generate: image saved")
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	if !result.Success {
		os.Exit(1)
	}
}

func overrideFromFlags(model, size, style string, n int) *domain.PartialConfig {
	var override domain.PartialConfig
	params := domain.PartialParams{}
	touched := false
	if model = strings.TrimSpace(model); model != "" {
		override.Model = &model
		touched = true
	}
	if size = strings.TrimSpace(size); size != "" {
		params.Size = &size
	}
	if style = strings.TrimSpace(style); style != "" {
		params.Style = &style
	}
	if n > 0 {
		params.N = &n
	}
	if params != (domain.PartialParams{}) {
		override.DefaultParams = &params
		touched = true
	}
	if !touched {
		return nil
	}
	return &override
}

func saveImage(ctx context.Context, client *dashscope.Client, files *storage.FileStore, taskID, url string, index int) (string, error) {
	data, mime, err := client.Download(ctx, url)
	if err != nil {
		return "", err
	}
	return files.Write(ctx, storage.ImageKey(taskID, mime, index), data)
}

func absPath(p string) string {
	if p == "" {
		p = "./storage"
	}
	if !filepath.IsAbs(p) {
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
	}
	return p
}

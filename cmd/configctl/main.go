package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/infra"
	"github.com/DreamFlyCoder/plugin/internal/settings"
)

func main() {
	var (
		keyFlag     string
		modelFlag   string
		baseURLFlag string
		sizeFlag    string
		countFlag   int
		showFlag    bool
	)
	flag.StringVar(&keyFlag, "key", "", "DashScope API key (fallbacks to DASHSCOPE_API_KEY)")
	flag.StringVar(&modelFlag, "model", "", "Default model")
	flag.StringVar(&baseURLFlag, "base-url", "", "Service base URL")
	flag.StringVar(&sizeFlag, "size", "", "Default image size, e.g. 1024*1024")
	flag.IntVar(&countFlag, "n", 0, "Default number of images")
	flag.BoolVar(&showFlag, "show", false, "Print the stored config and exit")
	flag.Parse()

	_ = godotenv.Load(".env", ".env.local")
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "configctl").Str("backend", cfg.SettingsBackend).Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	persister, closePersister, err := settings.OpenPersister(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open settings backend: %v\n", err)
		os.Exit(1)
	}
	defer closePersister()

	// No env seed here: only what is actually stored is shown and changed.
	store := settings.NewStore(persister, settings.Seed{}, &logger)
	current, err := store.Load(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("stored config has errors")
	}

	if showFlag {
		printConfig(current)
		return
	}

	var partial domain.PartialConfig
	if key := firstNonEmpty(keyFlag, os.Getenv("DASHSCOPE_API_KEY")); key != "" {
		partial.APIKey = &key
	}
	if model := strings.TrimSpace(modelFlag); model != "" {
		partial.Model = &model
	}
	if base := strings.TrimSpace(baseURLFlag); base != "" {
		partial.BaseURL = &base
	}
	var params domain.PartialParams
	if size := strings.TrimSpace(sizeFlag); size != "" {
		params.Size = &size
	}
	if countFlag > 0 {
		params.N = &countFlag
	}
	if params != (domain.PartialParams{}) {
		partial.DefaultParams = &params
	}
	if partial == (domain.PartialConfig{}) {
		fmt.Fprintln(os.Stderr, "nothing to update: pass -key, -model, -base-url, -size or -n")
		os.Exit(1)
	}

	updated, err := store.Update(ctx, partial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist config: %v\n", err)
		os.Exit(1)
	}
	for _, w := range settings.Validate(updated) {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
	}
	printConfig(updated)
}

func printConfig(cfg domain.Config) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(cfg.Redacted())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

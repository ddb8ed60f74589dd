package settings

import (
	"context"
	"fmt"

	"github.com/DreamFlyCoder/plugin/internal/adapter/repo"
	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/infra"
	"github.com/DreamFlyCoder/plugin/internal/storage"
)

// OpenPersister builds the persister selected by cfg.SettingsBackend. The
// returned close func releases any pool it opened.
func OpenPersister(ctx context.Context, cfg *infra.Config, logger infra.Logger) (domain.Persister, func(), error) {
	switch cfg.SettingsBackend {
	case infra.SettingsBackendPostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		settingsRepo := repo.NewSettingsRepository(infra.NewSQLRunner(pool, logger))
		if err := settingsRepo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return settingsRepo, pool.Close, nil
	case infra.SettingsBackendFile, "":
		files, err := storage.NewJSONFileStore(cfg.SettingsPath)
		if err != nil {
			return nil, nil, err
		}
		return files, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("settings: unsupported backend %q", cfg.SettingsBackend)
	}
}

// SeedFrom extracts the env seed values from cfg.
func SeedFrom(cfg *infra.Config) Seed {
	return Seed{
		BaseURL: cfg.DashScopeBaseURL,
		APIKey:  cfg.DashScopeAPIKey,
		Model:   cfg.DashScopeModel,
	}
}

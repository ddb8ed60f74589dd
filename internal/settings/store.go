package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/infra"
)

// Seed carries values from the environment used while the stored config has
// nothing better.
type Seed struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Store is the single source of truth for the baseline configuration. Reads
// return copies; only Update changes the baseline.
type Store struct {
	// writeMu serialises Update so saves reach storage in merge order.
	writeMu   sync.Mutex
	mu        sync.RWMutex
	cfg       domain.Config
	persister domain.Persister
	seed      Seed
	logger    infra.Logger
}

// NewStore builds a store holding the documented defaults until Load runs.
func NewStore(persister domain.Persister, seed Seed, logger *infra.Logger) *Store {
	s := &Store{
		persister: persister,
		seed:      seed,
		logger:    infra.LoggerOrDiscard(logger),
	}
	s.cfg = s.applySeed(domain.DefaultConfig())
	return s
}

// Load reads the persisted config. It waits for any Update in flight. A read failure is logged and the
// defaults are kept; only decoding errors of a stored value are returned.
func (s *Store) Load(ctx context.Context) (domain.Config, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cfg := domain.DefaultConfig()

	stored, err := s.persister.Load(ctx, domain.KeyAPIConfig, domain.KeyInterfaceSettings)
	if err != nil {
		s.logger.Warn().Err(err).Msg("settings: load failed, using defaults")
		stored = nil
	}

	var decodeErr error
	if raw, ok := stored[domain.KeyAPIConfig]; ok && !isNull(raw) {
		var partial domain.PartialConfig
		if err := json.Unmarshal(raw, &partial); err != nil {
			decodeErr = fmt.Errorf("settings: decode %s: %w", domain.KeyAPIConfig, err)
		} else {
			partial.InterfaceSettings = nil
			cfg = cfg.Overlay(&partial)
		}
	}
	if raw, ok := stored[domain.KeyInterfaceSettings]; ok && !isNull(raw) {
		var partial domain.PartialInterfaceSettings
		if err := json.Unmarshal(raw, &partial); err != nil {
			decodeErr = errors.Join(decodeErr, fmt.Errorf("settings: decode %s: %w", domain.KeyInterfaceSettings, err))
		} else {
			cfg.InterfaceSettings = cfg.InterfaceSettings.Merge(&partial)
		}
	}
	if decodeErr != nil {
		s.logger.Warn().Err(decodeErr).Msg("settings: stored config is corrupt, defaults used for the bad keys")
	}

	cfg = s.applySeed(cfg)

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.logWarnings(cfg)
	return cfg, decodeErr
}

// Get returns a copy of the baseline.
func (s *Store) Get() domain.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update merges partial into the baseline and persists both storage keys.
// When persisting fails the in-memory baseline keeps the merged value and the
// returned error wraps domain.ErrPersistence.
func (s *Store) Update(ctx context.Context, partial domain.PartialConfig) (domain.Config, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	merged := s.cfg.Overlay(&partial)
	s.cfg = merged
	s.mu.Unlock()

	s.logWarnings(merged)

	values, err := encode(merged)
	if err != nil {
		return merged, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if err := s.persister.Save(ctx, values); err != nil {
		s.logger.Error().Err(err).Msg("settings: persist failed")
		return merged, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	s.logger.Info().Str("model", merged.Model).Msg("settings: config updated")
	return merged, nil
}

func (s *Store) applySeed(cfg domain.Config) domain.Config {
	if v := strings.TrimSpace(s.seed.APIKey); v != "" && !cfg.HasCredentials() {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(s.seed.BaseURL); v != "" && (cfg.BaseURL == "" || cfg.BaseURL == domain.DefaultBaseURL) {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(s.seed.Model); v != "" && (cfg.Model == "" || cfg.Model == domain.DefaultModel) {
		cfg.Model = v
	}
	return cfg
}

func (s *Store) logWarnings(cfg domain.Config) {
	for _, w := range Validate(cfg) {
		s.logger.Warn().Str("field", w.Field).Msg("settings: " + w.Message)
	}
}

// storedAPIConfig is the shape of the apiConfig key. Interface settings live
// under their own key.
type storedAPIConfig struct {
	BaseURL       string                  `json:"baseUrl"`
	APIKey        string                  `json:"apiKey"`
	Model         string                  `json:"model"`
	DefaultParams domain.GenerationParams `json:"defaultParams"`
}

func encode(cfg domain.Config) (map[string]json.RawMessage, error) {
	api, err := json.Marshal(storedAPIConfig{
		BaseURL:       cfg.BaseURL,
		APIKey:        cfg.APIKey,
		Model:         cfg.Model,
		DefaultParams: cfg.DefaultParams,
	})
	if err != nil {
		return nil, err
	}
	ui, err := json.Marshal(cfg.InterfaceSettings)
	if err != nil {
		return nil, err
	}
	return map[string]json.RawMessage{
		domain.KeyAPIConfig:         api,
		domain.KeyInterfaceSettings: ui,
	}, nil
}

func isNull(raw json.RawMessage) bool {
	v := strings.TrimSpace(string(raw))
	return v == "" || v == "null"
}

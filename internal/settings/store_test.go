package settings

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/infra"
	"github.com/DreamFlyCoder/plugin/internal/storage"
)

type memoryPersister struct {
	mu      sync.Mutex
	values  map[string]json.RawMessage
	loadErr error
	saveErr error
	saves   int
}

func newMemoryPersister() *memoryPersister {
	return &memoryPersister{values: map[string]json.RawMessage{}}
}

func (m *memoryPersister) Load(_ context.Context, keys ...string) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := map[string]json.RawMessage{}
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memoryPersister) Save(_ context.Context, values map[string]json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func TestLoadEmptyStorageYieldsDefaults(t *testing.T) {
	store := NewStore(newMemoryPersister(), Seed{}, nil)

	cfg, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
	assert.Equal(t, cfg, store.Get())
	assert.False(t, cfg.HasCredentials())
}

func TestLoadBackfillsPartialStoredConfig(t *testing.T) {
	persister := newMemoryPersister()
	persister.values[domain.KeyAPIConfig] = json.RawMessage(`{"apiKey":"sk-stored","defaultParams":{"size":"768*768"}}`)
	persister.values[domain.KeyInterfaceSettings] = json.RawMessage(`{"toolbarPosition":"left"}`)
	store := NewStore(persister, Seed{}, nil)

	cfg, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-stored", cfg.APIKey)
	assert.Equal(t, domain.DefaultModel, cfg.Model)
	assert.Equal(t, domain.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "768*768", cfg.DefaultParams.Size)
	assert.Equal(t, domain.DefaultImageCount, cfg.DefaultParams.N)
	assert.Equal(t, domain.DefaultStyle, cfg.DefaultParams.Style)
	assert.Equal(t, "left", cfg.InterfaceSettings.ToolbarPosition)
	assert.False(t, cfg.InterfaceSettings.EnableKeyboardShortcuts)
}

func TestLoadReadFailureFallsBackToDefaults(t *testing.T) {
	persister := newMemoryPersister()
	persister.loadErr = errors.New("disk unavailable")
	store := NewStore(persister, Seed{}, nil)

	cfg, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestLoadCorruptKeyKeepsDefaults(t *testing.T) {
	persister := newMemoryPersister()
	persister.values[domain.KeyAPIConfig] = json.RawMessage(`"not an object"`)
	persister.values[domain.KeyInterfaceSettings] = json.RawMessage(`{"enableKeyboardShortcuts":true}`)
	store := NewStore(persister, Seed{}, nil)

	cfg, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.DefaultModel, cfg.Model)
	assert.True(t, cfg.InterfaceSettings.EnableKeyboardShortcuts)
}

func TestSeedAppliesOnlyOverPlaceholders(t *testing.T) {
	persister := newMemoryPersister()
	store := NewStore(persister, Seed{APIKey: "sk-env", Model: "wanx-v1"}, nil)

	cfg, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.Equal(t, "wanx-v1", cfg.Model)

	persister.values[domain.KeyAPIConfig] = json.RawMessage(`{"apiKey":"sk-stored","model":"wan2.1-t2i-plus"}`)
	cfg, err = store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-stored", cfg.APIKey)
	assert.Equal(t, "wan2.1-t2i-plus", cfg.Model)
}

func TestUpdateMergesNestedParams(t *testing.T) {
	persister := newMemoryPersister()
	store := NewStore(persister, Seed{}, nil)
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	cfg, err := store.Update(context.Background(), domain.PartialConfig{
		DefaultParams: &domain.PartialParams{N: intPtr(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.DefaultParams.N)
	assert.Equal(t, domain.DefaultStyle, cfg.DefaultParams.Style)
	assert.Equal(t, domain.DefaultQuality, cfg.DefaultParams.Quality)
	assert.Equal(t, domain.DefaultImageSize, cfg.DefaultParams.Size)
	assert.Equal(t, cfg, store.Get())

	var stored map[string]any
	require.NoError(t, json.Unmarshal(persister.values[domain.KeyAPIConfig], &stored))
	assert.Equal(t, float64(2), stored["defaultParams"].(map[string]any)["n"])
	assert.NotContains(t, stored, "interfaceSettings")
	assert.Contains(t, persister.values, domain.KeyInterfaceSettings)
}

func TestUpdatePersistFailureKeepsMemory(t *testing.T) {
	persister := newMemoryPersister()
	persister.saveErr = errors.New("read-only filesystem")
	store := NewStore(persister, Seed{}, nil)

	cfg, err := store.Update(context.Background(), domain.PartialConfig{Model: strPtr("wanx-v1")})
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, "wanx-v1", cfg.Model)
	assert.Equal(t, "wanx-v1", store.Get().Model)
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewStore(newMemoryPersister(), Seed{}, nil)

	cfg := store.Get()
	cfg.DefaultParams.N = 4
	cfg.APIKey = "changed"
	assert.Equal(t, domain.DefaultConfig(), store.Get())
}

func TestRoundTripThroughJSONFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	files, err := storage.NewJSONFileStore(path)
	require.NoError(t, err)

	store := NewStore(files, Seed{}, nil)
	_, err = store.Update(context.Background(), domain.PartialConfig{
		APIKey:            strPtr("sk-file"),
		InterfaceSettings: &domain.PartialInterfaceSettings{ToolbarPosition: strPtr("right")},
	})
	require.NoError(t, err)

	reloaded := NewStore(files, Seed{}, nil)
	cfg, err := reloaded.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.APIKey)
	assert.Equal(t, "right", cfg.InterfaceSettings.ToolbarPosition)
	assert.Equal(t, domain.DefaultGenerationParams(), cfg.DefaultParams)
}

func TestConcurrentUpdatesAndReads(t *testing.T) {
	store := NewStore(newMemoryPersister(), Seed{}, nil)

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_, _ = store.Update(context.Background(), domain.PartialConfig{DefaultParams: &domain.PartialParams{N: intPtr(n%4 + 1)}})
		}(i)
		go func() {
			defer wg.Done()
			_ = store.Get()
		}()
	}
	wg.Wait()
	assert.Equal(t, domain.DefaultStyle, store.Get().DefaultParams.Style)
}

// gatedPersister blocks the first Save until release is closed.
type gatedPersister struct {
	*memoryPersister
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPersister) Save(ctx context.Context, values map[string]json.RawMessage) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.memoryPersister.Save(ctx, values)
}

func TestUpdatesReachStorageInMergeOrder(t *testing.T) {
	persister := &gatedPersister{
		memoryPersister: newMemoryPersister(),
		entered:         make(chan struct{}),
		release:         make(chan struct{}),
	}
	store := NewStore(persister, Seed{}, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := store.Update(context.Background(), domain.PartialConfig{Model: strPtr("model-a")})
		assert.NoError(t, err)
	}()
	<-persister.entered

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		_, err := store.Update(context.Background(), domain.PartialConfig{DefaultParams: &domain.PartialParams{N: intPtr(3)}})
		assert.NoError(t, err)
	}()

	select {
	case <-secondDone:
		t.Fatal("second update finished while the first save was still pending")
	case <-time.After(50 * time.Millisecond):
	}
	close(persister.release)
	wg.Wait()
	<-secondDone

	assert.Equal(t, 2, persister.saves)
	reloaded, err := NewStore(persister.memoryPersister, Seed{}, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.Get(), reloaded)
	assert.Equal(t, "model-a", reloaded.Model)
	assert.Equal(t, 3, reloaded.DefaultParams.N)
}

func TestOpenPersisterFileBackend(t *testing.T) {
	cfg := &infra.Config{SettingsBackend: infra.SettingsBackendFile, SettingsPath: filepath.Join(t.TempDir(), "settings.json")}
	persister, closeFn, err := OpenPersister(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()

	_, ok := persister.(*storage.JSONFileStore)
	assert.True(t, ok)
}

func TestOpenPersisterUnknownBackend(t *testing.T) {
	_, _, err := OpenPersister(context.Background(), &infra.Config{SettingsBackend: "redis"}, zerolog.Nop())
	require.Error(t, err)
}

func TestSeedFrom(t *testing.T) {
	seed := SeedFrom(&infra.Config{DashScopeAPIKey: "k", DashScopeModel: "m", DashScopeBaseURL: "u"})
	assert.Equal(t, Seed{BaseURL: "u", APIKey: "k", Model: "m"}, seed)
}

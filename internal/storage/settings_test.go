package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestJSONFileStoreMissingFileLoadsEmpty(t *testing.T) {
	store, err := NewJSONFileStore(filepath.Join(t.TempDir(), "nested", "settings.json"))
	if err != nil {
		t.Fatalf("NewJSONFileStore error: %v", err)
	}
	got, err := store.Load(context.Background(), "apiConfig")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestJSONFileStoreSavePreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"favorites":[1,2,3]}`), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	store, err := NewJSONFileStore(path)
	if err != nil {
		t.Fatalf("NewJSONFileStore error: %v", err)
	}
	ctx := context.Background()
	if err := store.Save(ctx, map[string]json.RawMessage{"apiConfig": json.RawMessage(`{"model":"m"}`)}); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := store.Load(ctx, "apiConfig", "favorites")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	var cfg map[string]string
	if err := json.Unmarshal(got["apiConfig"], &cfg); err != nil || cfg["model"] != "m" {
		t.Fatalf("unexpected apiConfig %s (%v)", got["apiConfig"], err)
	}
	var favorites []int
	if err := json.Unmarshal(got["favorites"], &favorites); err != nil || len(favorites) != 3 {
		t.Fatalf("favorites lost: %s (%v)", got["favorites"], err)
	}
}

func TestJSONFileStoreCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	store, err := NewJSONFileStore(path)
	if err != nil {
		t.Fatalf("NewJSONFileStore error: %v", err)
	}
	if _, err := store.Load(context.Background(), "apiConfig"); err == nil {
		t.Fatalf("expected decode error")
	}
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/DreamFlyCoder/plugin/internal/domain"
)

// JSONFileStore is a domain.Persister keeping all keys in one JSON object on
// disk. Saves merge into the existing document so unrelated keys written by
// other collaborators survive.
type JSONFileStore struct {
	mu    sync.Mutex
	files *FileStore
	key   string
}

// NewJSONFileStore stores the document at path, creating parent directories.
func NewJSONFileStore(path string) (*JSONFileStore, error) {
	files, err := NewFileStore(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return &JSONFileStore{files: files, key: filepath.Base(path)}, nil
}

// Load returns the requested keys present in the document.
func (s *JSONFileStore) Load(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		if v, ok := doc[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// Save merges values into the document and rewrites it atomically.
func (s *JSONFileStore) Save(ctx context.Context, values map[string]json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked(ctx)
	if err != nil {
		return err
	}
	for k, v := range values {
		doc[k] = v
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode settings: %w", err)
	}
	if _, err := s.files.Write(ctx, s.key, raw); err != nil {
		return err
	}
	return nil
}

func (s *JSONFileStore) readLocked(ctx context.Context) (map[string]json.RawMessage, error) {
	raw, err := s.files.Read(ctx, s.key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}
	doc := map[string]json.RawMessage{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("storage: decode settings: %w", err)
	}
	return doc, nil
}

var _ domain.Persister = (*JSONFileStore)(nil)

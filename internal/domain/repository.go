package domain

import (
	"context"
	"encoding/json"
)

// Storage keys used for the persisted configuration.
const (
	KeyAPIConfig         = "apiConfig"
	KeyInterfaceSettings = "interfaceSettings"
)

// Persister is a durable get/set-by-key store. Keys that were never written are
// absent from the map returned by Load.
type Persister interface {
	Load(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	Save(ctx context.Context, values map[string]json.RawMessage) error
}

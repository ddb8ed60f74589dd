package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DreamFlyCoder/plugin/internal/domain"
	"github.com/DreamFlyCoder/plugin/internal/infra"
	"github.com/DreamFlyCoder/plugin/internal/sqlinline"
)

// SettingsRepositoryPG implements domain.Persister on a PostgreSQL table.
type SettingsRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewSettingsRepository creates a settings repository backed by PostgreSQL.
func NewSettingsRepository(sql infra.SQLExecutor) *SettingsRepositoryPG {
	return &SettingsRepositoryPG{sql: sql}
}

// EnsureSchema creates the settings table when it does not exist yet.
func (r *SettingsRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QEnsureSettingsTable); err != nil {
		return fmt.Errorf("ensure settings table: %w", err)
	}
	return nil
}

// Load fetches the requested keys. Missing keys are absent from the result.
func (r *SettingsRepositoryPG) Load(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	rows, err := r.sql.Query(ctx, sqlinline.QSelectSettings, keys)
	if err != nil {
		return nil, fmt.Errorf("select settings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[key] = append(json.RawMessage(nil), value...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return out, nil
}

// Save upserts all values in a single statement.
func (r *SettingsRepositoryPG) Save(ctx context.Context, values map[string]json.RawMessage) error {
	if len(values) == 0 {
		return nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if _, err := r.sql.Exec(ctx, sqlinline.QUpsertSettings, raw); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

var _ domain.Persister = (*SettingsRepositoryPG)(nil)

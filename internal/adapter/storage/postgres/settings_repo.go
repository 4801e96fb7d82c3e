package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SettingsRepo implements ports.SettingsRepository over a single-row
// key/value table. Minting defaults to enabled when the key is absent.
type SettingsRepo struct {
	pool Pool
}

// NewSettingsRepo creates a new SettingsRepo.
func NewSettingsRepo(pool Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

const mintingEnabledKey = "minting_enabled"

// MintingEnabled reads the global minting flag.
func (r *SettingsRepo) MintingEnabled(ctx context.Context) (bool, error) {
	query := `SELECT value FROM settings WHERE key = $1`

	var value string
	err := r.pool.QueryRow(ctx, query, mintingEnabledKey).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return true, nil
		}
		return false, fmt.Errorf("read minting flag: %w", err)
	}
	return value == "true", nil
}

// SetMintingEnabled writes the global minting flag.
func (r *SettingsRepo) SetMintingEnabled(ctx context.Context, enabled bool) error {
	query := `INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	value := "false"
	if enabled {
		value = "true"
	}
	if _, err := r.pool.Exec(ctx, query, mintingEnabledKey, value); err != nil {
		return fmt.Errorf("write minting flag: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
	"github.com/FACorreiaa/statement-import/pkg/db"
)

// MappingRepository implements MappingStore on the bank_mappings table.
type MappingRepository struct {
	db     db.DBTX
	userID uuid.UUID
}

// NewMappingRepository creates a mapping store scoped to a user.
func NewMappingRepository(conn db.DBTX, userID uuid.UUID) *MappingRepository {
	return &MappingRepository{db: conn, userID: userID}
}

// LoadMapping returns the mapping remembered for key, or nil.
func (r *MappingRepository) LoadMapping(ctx context.Context, key string) (*model.ColumnMapping, error) {
	query := `SELECT mapping FROM bank_mappings WHERE user_id = $1 AND profile_key = $2`

	var raw []byte
	err := r.db.QueryRow(ctx, query, r.userID, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bank mapping: %w", err)
	}

	var m model.ColumnMapping
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode bank mapping %s: %w", key, err)
	}
	return &m, nil
}

// SaveMapping upserts the mapping for key.
func (r *MappingRepository) SaveMapping(ctx context.Context, key string, m model.ColumnMapping) error {
	if key == "" {
		return ErrEmptyProfileKey
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode bank mapping: %w", err)
	}

	query := `
		INSERT INTO bank_mappings (user_id, profile_key, mapping)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, profile_key)
		DO UPDATE SET mapping = EXCLUDED.mapping, updated_at = now()`

	if _, err := r.db.Exec(ctx, query, r.userID, key, raw); err != nil {
		return fmt.Errorf("failed to save bank mapping: %w", err)
	}
	return nil
}

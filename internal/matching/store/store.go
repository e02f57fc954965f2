package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindCode(ctx context.Context, tenantID uuid.UUID, description string) (string, error) {
	query := `
		SELECT nature_code
		FROM nature_code_hints
		WHERE tenant_id = $1 AND $2 ILIKE '%' || pattern || '%'
		ORDER BY LENGTH(pattern) DESC, created_at DESC
		LIMIT 1
	`

	var code string

	err := s.db.QueryRowContext(ctx, query, tenantID, description).Scan(&code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("finding nature code hint: %w", err)
	}

	return code, nil
}

func (s *Store) CreateHint(ctx context.Context, tenantID uuid.UUID, pattern, natureCode string) error {
	query := `
		INSERT INTO nature_code_hints (tenant_id, pattern, nature_code, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tenant_id, pattern) DO UPDATE SET nature_code = EXCLUDED.nature_code, created_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, tenantID, pattern, natureCode); err != nil {
		return fmt.Errorf("creating nature code hint: %w", err)
	}

	return nil
}

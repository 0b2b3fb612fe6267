package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// SourceStore implements domain.SourceStore over the event_source registry.
type SourceStore struct {
	pool *pgxpool.Pool
}

// NewSourceStore creates a SourceStore backed by the given pool.
func NewSourceStore(pool *pgxpool.Pool) *SourceStore {
	return &SourceStore{pool: pool}
}

// GetByID retrieves one source.
func (s *SourceStore) GetByID(ctx context.Context, id int64) (domain.Source, error) {
	var (
		src     domain.Source
		apiType string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, api_type, is_active FROM event_source WHERE id = $1`, id,
	).Scan(&src.ID, &src.Name, &apiType, &src.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Source{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Source{}, fmt.Errorf("postgres: get source %d: %w", id, err)
	}
	src.APIType = domain.Platform(apiType)
	return src, nil
}

// ListActive returns every source currently enabled for syncing.
func (s *SourceStore) ListActive(ctx context.Context) ([]domain.Source, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, api_type, is_active FROM event_source WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		var (
			src     domain.Source
			apiType string
		)
		if err := rows.Scan(&src.ID, &src.Name, &apiType, &src.IsActive); err != nil {
			return nil, fmt.Errorf("postgres: scan source: %w", err)
		}
		src.APIType = domain.Platform(apiType)
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list active sources rows: %w", err)
	}
	return sources, nil
}

// Ensure registers a source on first use and returns its id either way.
// Re-ensuring an existing source refreshes its platform and active flag so
// configuration toggles take effect on restart.
func (s *SourceStore) Ensure(ctx context.Context, src domain.Source) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO event_source (name, api_type, is_active)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			api_type  = EXCLUDED.api_type,
			is_active = EXCLUDED.is_active
		RETURNING id`,
		src.Name, string(src.APIType), src.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: ensure source %q: %w", src.Name, err)
	}
	return id, nil
}

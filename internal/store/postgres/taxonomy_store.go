package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// TaxonomyStore implements domain.TaxonomyStore. Every operation is an
// upsert keyed by slug, so concurrent creators of the same category or tag
// never produce duplicate rows, and links are idempotent.
type TaxonomyStore struct {
	pool *pgxpool.Pool
}

// NewTaxonomyStore creates a TaxonomyStore backed by the given pool.
func NewTaxonomyStore(pool *pgxpool.Pool) *TaxonomyStore {
	return &TaxonomyStore{pool: pool}
}

// EnsureCategory upserts a category by slug and returns its id.
func (s *TaxonomyStore) EnsureCategory(ctx context.Context, cat domain.Category) (int64, error) {
	slug := cat.Slug
	if slug == "" {
		slug = domain.Slugify(cat.Name)
	}
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO category (name, slug, color, icon)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		cat.Name, slug, cat.Color, cat.Icon,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: ensure category %q: %w", slug, err)
	}
	return id, nil
}

// EnsureTag upserts a tag by slug and returns its id.
func (s *TaxonomyStore) EnsureTag(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO tag (name, slug)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		name, domain.Slugify(name),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: ensure tag %q: %w", name, err)
	}
	return id, nil
}

// LinkCategory links an event to a category; re-linking is a no-op.
func (s *TaxonomyStore) LinkCategory(ctx context.Context, eventID, categoryID int64, primary bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO event_category (event_id, category_id, is_primary)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		eventID, categoryID, primary,
	)
	if err != nil {
		return fmt.Errorf("postgres: link category %d to event %d: %w", categoryID, eventID, err)
	}
	return nil
}

// LinkTag links an event to a tag; re-linking is a no-op.
func (s *TaxonomyStore) LinkTag(ctx context.Context, eventID, tagID int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO event_tag (event_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		eventID, tagID,
	)
	if err != nil {
		return fmt.Errorf("postgres: link tag %d to event %d: %w", tagID, eventID, err)
	}
	return nil
}

// SeedCategories ensures a platform's default category set exists.
func (s *TaxonomyStore) SeedCategories(ctx context.Context, cats []domain.Category) error {
	for _, cat := range cats {
		if _, err := s.EnsureCategory(ctx, cat); err != nil {
			return err
		}
	}
	return nil
}

// linkTaxonomyTx links an event to its category and tags inside the insert
// transaction, sharing the txn so a failed link rolls the record back. An
// empty category falls back to the general bucket; a category whose row does
// not exist yet is skipped rather than created mid-insert.
func linkTaxonomyTx(ctx context.Context, tx pgx.Tx, eventID int64, category string, tags []string) error {
	slug := "general"
	if category != "" {
		slug = domain.Slugify(category)
	}

	var categoryID int64
	err := tx.QueryRow(ctx,
		`SELECT id FROM category WHERE slug = $1`, slug,
	).Scan(&categoryID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// Unknown category; the seeded set covers the expected ones.
	case err != nil:
		return fmt.Errorf("postgres: resolve category %q: %w", slug, err)
	default:
		if _, err := tx.Exec(ctx, `
			INSERT INTO event_category (event_id, category_id, is_primary)
			VALUES ($1, $2, TRUE)
			ON CONFLICT DO NOTHING`,
			eventID, categoryID,
		); err != nil {
			return fmt.Errorf("postgres: link category %q: %w", slug, err)
		}
	}

	for _, tagName := range tags {
		var tagID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO tag (name, slug)
			VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`,
			tagName, domain.Slugify(tagName),
		).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("postgres: ensure tag %q: %w", tagName, err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO event_tag (event_id, tag_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			eventID, tagID,
		); err != nil {
			return fmt.Errorf("postgres: link tag %q: %w", tagName, err)
		}
	}
	return nil
}

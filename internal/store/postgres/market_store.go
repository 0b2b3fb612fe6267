package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// priceDedupWindow and priceDedupDelta bound price-history appends on
// update: a new sample is dropped when one within priceDedupDelta of it
// already landed inside the window.
const (
	priceDedupWindow = time.Hour
	priceDedupDelta  = 0.01
)

// MarketStore implements domain.MarketStore using PostgreSQL. It owns every
// write to the event, metadata, outcome, taxonomy-link, and price_history
// tables; Insert and Update are each one transaction, so a failed record
// never leaves partial rows.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

// Lookup resolves a market by its natural key (source_id, external_id).
func (s *MarketStore) Lookup(ctx context.Context, sourceID int64, externalID string) (domain.MarketLookup, error) {
	var l domain.MarketLookup
	err := s.pool.QueryRow(ctx,
		`SELECT id, probability, volume FROM event WHERE source_id = $1 AND external_id = $2`,
		sourceID, externalID,
	).Scan(&l.ID, &l.Probability, &l.Volume)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.MarketLookup{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.MarketLookup{}, fmt.Errorf("postgres: lookup event %s: %w", externalID, err)
	}
	return l, nil
}

// Insert writes a first-seen market atomically: the event row, its metadata,
// outcomes with their metadata, taxonomy links, and the initial price-history
// sample when a probability is present.
func (s *MarketStore) Insert(ctx context.Context, sourceID int64, rec domain.MarketRecord) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin insert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var eventID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO event (
			source_id, external_id, title, slug, description,
			end_date, probability, volume, liquidity, source_url,
			status, event_type
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'prediction')
		RETURNING id`,
		sourceID, rec.ExternalID, rec.Title, rec.Slug, rec.Description,
		rec.EndDate, rec.Probability, rec.Volume, rec.Liquidity, rec.SourceURL,
		string(rec.Status),
	).Scan(&eventID)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert event %s: %w", rec.ExternalID, err)
	}

	info, err := metadataJSON(rec)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO event_metadata (event_id, additional_info) VALUES ($1, $2)`,
		eventID, info,
	); err != nil {
		return 0, fmt.Errorf("postgres: insert event metadata: %w", err)
	}

	for i, o := range rec.Outcomes {
		var outcomeID int64
		err := tx.QueryRow(ctx,
			`INSERT INTO outcome (event_id, name, probability, display_order)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			eventID, o.Name, o.Probability, i,
		).Scan(&outcomeID)
		if err != nil {
			return 0, fmt.Errorf("postgres: insert outcome %q: %w", o.Name, err)
		}

		outcomeInfo, err := json.Marshal(map[string]string{"outcome_id": o.ExternalID})
		if err != nil {
			return 0, fmt.Errorf("postgres: marshal outcome metadata: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO outcome_metadata (outcome_id, symbol, additional_info)
			 VALUES ($1, $2, $3)`,
			outcomeID, outcomeSymbol(o.Name), outcomeInfo,
		); err != nil {
			return 0, fmt.Errorf("postgres: insert outcome metadata: %w", err)
		}
	}

	if err := linkTaxonomyTx(ctx, tx, eventID, rec.Category, rec.Tags); err != nil {
		return 0, err
	}

	if rec.Probability != nil {
		if _, err := tx.Exec(ctx,
			`INSERT INTO price_history (event_id, timestamp, price, volume_24h)
			 VALUES ($1, NOW(), $2, $3)`,
			eventID, *rec.Probability, rec.Volume,
		); err != nil {
			return 0, fmt.Errorf("postgres: insert initial price sample: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit insert tx: %w", err)
	}
	return eventID, nil
}

// Update refreshes the mutable fields of an existing market, refreshes
// outcome probabilities, and appends a price-history sample unless one
// within priceDedupDelta of it already landed inside priceDedupWindow.
func (s *MarketStore) Update(ctx context.Context, id int64, rec domain.MarketRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin update tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE event SET
			probability = $2,
			volume      = $3,
			liquidity   = $4,
			source_url  = $5,
			updated_at  = NOW()
		WHERE id = $1`,
		id, rec.Probability, rec.Volume, rec.Liquidity, rec.SourceURL,
	); err != nil {
		return fmt.Errorf("postgres: update event %d: %w", id, err)
	}

	for _, o := range rec.Outcomes {
		if o.Probability == nil {
			continue
		}
		if _, err := tx.Exec(ctx,
			`UPDATE outcome SET probability = $3 WHERE event_id = $1 AND name = $2`,
			id, o.Name, *o.Probability,
		); err != nil {
			return fmt.Errorf("postgres: update outcome %q: %w", o.Name, err)
		}
	}

	// The dedup predicate lives in SQL so concurrent updaters see committed
	// samples; the window and delta come from the package constants.
	if rec.Probability != nil {
		cutoff := time.Now().UTC().Add(-priceDedupWindow)
		if _, err := tx.Exec(ctx, `
			INSERT INTO price_history (event_id, timestamp, price, volume_24h)
			SELECT $1, NOW(), $2, $3
			WHERE NOT EXISTS (
				SELECT 1 FROM price_history
				WHERE event_id = $1
				AND timestamp > $4
				AND ABS(price - $2) < $5
			)`,
			id, *rec.Probability, rec.Volume, cutoff, priceDedupDelta,
		); err != nil {
			return fmt.Errorf("postgres: append price sample: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit update tx: %w", err)
	}
	return nil
}

// ListRecords returns persisted active markets from all sources, normalized
// back to canonical records, highest volume first.
func (s *MarketStore) ListRecords(ctx context.Context, opts domain.ListOpts) ([]domain.MarketRecord, error) {
	query := `
		SELECT e.external_id, s.api_type, e.title, e.slug, e.description,
		       e.end_date, e.probability, e.volume, e.liquidity,
		       e.source_url, e.status, COALESCE(c.name, '')
		FROM event e
		JOIN event_source s ON s.id = e.source_id
		LEFT JOIN event_category ec ON ec.event_id = e.id AND ec.is_primary
		LEFT JOIN category c ON c.id = ec.category_id
		WHERE e.status = 'active'
		ORDER BY e.volume DESC`
	args := []any{}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list records: %w", err)
	}
	defer rows.Close()

	var records []domain.MarketRecord
	for rows.Next() {
		var (
			rec      domain.MarketRecord
			apiType  string
			status   string
			category string
		)
		if err := rows.Scan(
			&rec.ExternalID, &apiType, &rec.Title, &rec.Slug, &rec.Description,
			&rec.EndDate, &rec.Probability, &rec.Volume, &rec.Liquidity,
			&rec.SourceURL, &status, &category,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan record: %w", err)
		}
		rec.Platform = domain.Platform(apiType)
		rec.Status = domain.MarketStatus(status)
		rec.Category = category
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list records rows: %w", err)
	}
	return records, nil
}

// Count returns the total number of persisted markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM event").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count events: %w", err)
	}
	return count, nil
}

// PrunePriceHistory deletes price samples older than the retention window.
func (s *MarketStore) PrunePriceHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM price_history WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: prune price history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// metadataJSON builds the event_metadata payload: platform tag plus any
// adapter-supplied extras.
func metadataJSON(rec domain.MarketRecord) ([]byte, error) {
	info := map[string]string{"platform": string(rec.Platform)}
	for k, v := range rec.Extra {
		info[k] = v
	}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal event metadata: %w", err)
	}
	return data, nil
}

// outcomeSymbol derives a short display symbol from an outcome name.
func outcomeSymbol(name string) string {
	if len(name) > 10 {
		name = name[:10]
	}
	return strings.ToUpper(name)
}

// Package fortytwo ingests on-chain market listings from the 42.space
// Hasura API and normalizes them into canonical records.
package fortytwo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

const (
	// pageSize is the number of markets requested per Hasura query.
	pageSize = 50

	// maxRecords caps how many markets one sync run will pull.
	maxRecords = 200
)

// marketsQuery pages through active and pending markets, highest volume
// first. Hasura uses limit/offset rather than first/skip.
const marketsQuery = `
	query GetActiveMarkets($limit: Int!, $offset: Int!) {
		home_market_list(
			where: { status: { _in: ["active", "pending"] } }
			limit: $limit
			offset: $offset
			order_by: { volume: desc }
		) {
			market_address
			question
			question_id
			status
			volume
			liquidity
			resolved_outcome
			outcomes
			resolution_timestamp
			created_at
			updated_at
		}
	}
`

// Adapter fetches and normalizes 42.space listings.
type Adapter struct {
	graphqlURL string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewAdapter creates a 42.space adapter. graphqlURL is the Hasura endpoint,
// e.g. "https://api.42.space/v1/graphql".
func NewAdapter(graphqlURL string, timeout time.Duration, logger *slog.Logger) *Adapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Adapter{
		graphqlURL: graphqlURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("adapter", "fortytwo")),
		now:        time.Now,
	}
}

// Platform returns the platform tag for records produced by this adapter.
func (a *Adapter) Platform() domain.Platform { return domain.PlatformFortyTwo }

// PageSize returns how far the cursor advances per fetched page.
func (a *Adapter) PageSize() int { return pageSize }

// MaxRecords returns the per-run record ceiling.
func (a *Adapter) MaxRecords() int { return maxRecords }

// SeedCategories returns the default category rows ensured before each sync.
func (a *Adapter) SeedCategories() []domain.Category {
	return []domain.Category{
		{Name: "General", Slug: "general", Color: "#6B7280", Icon: "🔮"},
		{Name: "Politics", Slug: "politics", Color: "#3B82F6", Icon: "🏛️"},
		{Name: "Crypto", Slug: "crypto", Color: "#F59E0B", Icon: "₿"},
		{Name: "Sports", Slug: "sports", Color: "#10B981", Icon: "⚽"},
		{Name: "Entertainment", Slug: "entertainment", Color: "#EC4899", Icon: "🎬"},
		{Name: "Technology", Slug: "technology", Color: "#8B5CF6", Icon: "💻"},
	}
}

// FetchPage retrieves one page of markets starting at the given offset. An
// empty or short page signals the terminal page. Records that fail to
// normalize are logged and skipped.
func (a *Adapter) FetchPage(ctx context.Context, offset int) ([]domain.MarketRecord, bool, error) {
	variables := map[string]any{
		"limit":  pageSize,
		"offset": offset,
	}

	respData, err := a.doQuery(ctx, marketsQuery, variables)
	if err != nil {
		return nil, false, fmt.Errorf("fortytwo: fetch page at offset %d: %w", offset, err)
	}

	var result struct {
		Markets []hasuraMarket `json:"home_market_list"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return nil, false, fmt.Errorf("fortytwo: decode markets: %w", err)
	}

	records := make([]domain.MarketRecord, 0, len(result.Markets))
	for i := range result.Markets {
		rec, err := result.Markets[i].toRecord(a.now())
		if err != nil {
			a.logger.WarnContext(ctx, "skipping degraded record",
				slog.String("market_address", result.Markets[i].MarketAddress),
				slog.String("error", err.Error()),
			)
			continue
		}
		records = append(records, rec)
	}

	done := len(result.Markets) < pageSize
	return records, done, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (a *Adapter) doQuery(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	reqBody, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.graphqlURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrFetchFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", domain.ErrFetchFailed, resp.StatusCode, string(body))
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return nil, fmt.Errorf("%w: graphql: %s", domain.ErrFetchFailed, envelope.Errors[0].Message)
	}

	return envelope.Data, nil
}

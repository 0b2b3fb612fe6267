// Package polymarket ingests market listings from the Polymarket subgraph
// and normalizes them into canonical records.
package polymarket

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
	// pageSize is the number of markets requested per subgraph query.
	pageSize = 100

	// maxRecords caps how many markets one sync run will pull. The subgraph
	// is ordered by volume descending, so the cap keeps the highest-signal
	// markets while bounding cost.
	maxRecords = 500
)

// marketsQuery pages through open markets, highest volume first.
const marketsQuery = `
	query GetMarkets($first: Int!, $skip: Int!) {
		markets(
			first: $first
			skip: $skip
			where: { closed: false }
			orderBy: volume
			orderDirection: desc
		) {
			id
			question
			slug
			description
			endDate
			volume
			liquidity
			outcomeTokenPrices
			outcomes
			category
			tags
		}
	}
`

// Adapter fetches and normalizes Polymarket listings. It is stateless per
// call and safe for reuse across sync runs.
type Adapter struct {
	graphqlURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAdapter creates a Polymarket adapter.
//
// graphqlURL is the matic-markets subgraph endpoint, e.g.
// "https://api.thegraph.com/subgraphs/name/polymarket/matic-markets".
func NewAdapter(graphqlURL string, timeout time.Duration, logger *slog.Logger) *Adapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Adapter{
		graphqlURL: graphqlURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("adapter", "polymarket")),
	}
}

// Platform returns the platform tag for records produced by this adapter.
func (a *Adapter) Platform() domain.Platform { return domain.PlatformPolymarket }

// PageSize returns how far the cursor advances per fetched page.
func (a *Adapter) PageSize() int { return pageSize }

// MaxRecords returns the per-run record ceiling.
func (a *Adapter) MaxRecords() int { return maxRecords }

// SeedCategories returns the default category rows ensured before each sync.
func (a *Adapter) SeedCategories() []domain.Category {
	return []domain.Category{
		{Name: "Politics", Slug: "politics", Color: "#3B82F6", Icon: "🏛️"},
		{Name: "Crypto", Slug: "crypto", Color: "#F59E0B", Icon: "₿"},
		{Name: "Sports", Slug: "sports", Color: "#10B981", Icon: "⚽"},
		{Name: "Pop Culture", Slug: "pop-culture", Color: "#EC4899", Icon: "🎬"},
		{Name: "Science", Slug: "science", Color: "#8B5CF6", Icon: "🔬"},
		{Name: "Economics", Slug: "economics", Color: "#EF4444", Icon: "📈"},
	}
}

// FetchPage retrieves one page of markets starting at the given offset and
// normalizes each into a canonical record. A page shorter than PageSize (or
// empty) signals the terminal page. Individual records that fail to
// normalize are logged and skipped; they never abort the page.
func (a *Adapter) FetchPage(ctx context.Context, offset int) ([]domain.MarketRecord, bool, error) {
	variables := map[string]any{
		"first": pageSize,
		"skip":  offset,
	}

	respData, err := a.doQuery(ctx, marketsQuery, variables)
	if err != nil {
		return nil, false, fmt.Errorf("polymarket: fetch page at offset %d: %w", offset, err)
	}

	var result struct {
		Markets []subgraphMarket `json:"markets"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return nil, false, fmt.Errorf("polymarket: decode markets: %w", err)
	}

	records := make([]domain.MarketRecord, 0, len(result.Markets))
	for i := range result.Markets {
		rec, err := result.Markets[i].toRecord()
		if err != nil {
			a.logger.WarnContext(ctx, "skipping degraded record",
				slog.String("market_id", result.Markets[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		records = append(records, rec)
	}

	done := len(result.Markets) < pageSize
	return records, done, nil
}

// graphqlRequest is the standard GraphQL request envelope.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the standard GraphQL response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// doQuery posts a GraphQL query and returns the raw data payload. Network and
// HTTP-level failures are wrapped in domain.ErrFetchFailed so callers can
// distinguish retryable fetch errors from decode errors.
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

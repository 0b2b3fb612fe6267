package polymarket

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/marketcal/internal/domain"
	"github.com/alanyoungcy/marketcal/internal/marketurl"
)

// weiPerToken converts subgraph 18-decimal fixed-point amounts to whole units.
const weiPerToken = 1e18

// subgraphMarket mirrors one market node from the matic-markets subgraph.
// All numeric fields arrive as decimal strings.
type subgraphMarket struct {
	ID                 string   `json:"id"`
	Question           string   `json:"question"`
	Slug               string   `json:"slug"`
	Description        string   `json:"description"`
	EndDate            string   `json:"endDate"`
	Volume             string   `json:"volume"`
	Liquidity          string   `json:"liquidity"`
	OutcomeTokenPrices []string `json:"outcomeTokenPrices"`
	Outcomes           []string `json:"outcomes"`
	Category           string   `json:"category"`
	Tags               []string `json:"tags"`
}

// toRecord normalizes a subgraph market into a canonical record.
//
// Missing or degraded auxiliary fields degrade gracefully: an unparsable
// price or end date becomes nil, a missing slug falls back to the id, a
// missing description falls back to the question. Only an empty id or
// question rejects the record outright.
func (m *subgraphMarket) toRecord() (domain.MarketRecord, error) {
	if m.ID == "" {
		return domain.MarketRecord{}, fmt.Errorf("%w: missing market id", domain.ErrBadRecord)
	}
	if strings.TrimSpace(m.Question) == "" {
		return domain.MarketRecord{}, fmt.Errorf("%w: market %s has no question", domain.ErrBadRecord, m.ID)
	}

	slug := m.Slug
	if slug == "" {
		slug = m.ID
	}
	description := m.Description
	if description == "" {
		description = m.Question
	}

	rec := domain.MarketRecord{
		ExternalID:  m.ID,
		Platform:    domain.PlatformPolymarket,
		Title:       m.Question,
		Slug:        slug,
		Description: description,
		EndDate:     parseUnixSeconds(m.EndDate),
		Probability: parseOptionalFloat(firstOrEmpty(m.OutcomeTokenPrices)),
		Volume:      parseWei(m.Volume),
		Liquidity:   parseOptionalWei(m.Liquidity),
		Status:      domain.MarketStatusActive,
		Category:    m.Category,
		Tags:        m.Tags,
		Outcomes:    m.toOutcomes(),
	}
	if url, ok := marketurl.BuildURL("polymarket", slug, marketurl.Extra{}); ok {
		rec.SourceURL = url
	}
	if m.Category != "" {
		rec.Extra = map[string]string{"category": m.Category}
	}
	return rec, nil
}

// toOutcomes pairs outcome names with their token prices by index. A price
// that is absent or unparsable leaves the outcome's probability nil.
func (m *subgraphMarket) toOutcomes() []domain.Outcome {
	outcomes := make([]domain.Outcome, 0, len(m.Outcomes))
	for i, name := range m.Outcomes {
		o := domain.Outcome{
			Name:       name,
			ExternalID: strconv.Itoa(i + 1),
		}
		if i < len(m.OutcomeTokenPrices) {
			o.Probability = parseOptionalFloat(m.OutcomeTokenPrices[i])
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func firstOrEmpty(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

// parseUnixSeconds parses a unix-seconds decimal string, returning nil on
// any parse failure or an empty/zero value.
func parseUnixSeconds(s string) *time.Time {
	if s == "" {
		return nil
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}

// parseOptionalFloat parses a decimal string, returning nil on failure.
func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseWei parses an 18-decimal fixed-point string into whole units,
// returning 0 on failure.
func parseWei(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f / weiPerToken
}

// parseOptionalWei is parseWei with a nil result on failure instead of 0.
func parseOptionalWei(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f /= weiPerToken
	return &f
}

package fortytwo

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/marketcal/internal/domain"
	"github.com/alanyoungcy/marketcal/internal/marketurl"
)

// defaultHorizon is applied when a market carries no resolution timestamp.
const defaultHorizon = 30 * 24 * time.Hour

// hasuraMarket mirrors one row of home_market_list. Volume and liquidity
// arrive as decimal strings, outcomes as an embedded JSON array.
type hasuraMarket struct {
	MarketAddress       string          `json:"market_address"`
	Question            string          `json:"question"`
	QuestionID          string          `json:"question_id"`
	Status              string          `json:"status"`
	Volume              string          `json:"volume"`
	Liquidity           string          `json:"liquidity"`
	ResolvedOutcome     string          `json:"resolved_outcome"`
	Outcomes            []hasuraOutcome `json:"outcomes"`
	ResolutionTimestamp string          `json:"resolution_timestamp"`
	CreatedAt           string          `json:"created_at"`
	UpdatedAt           string          `json:"updated_at"`
}

type hasuraOutcome struct {
	OutcomeID   string   `json:"outcome_id"`
	Name        string   `json:"name"`
	Probability *float64 `json:"probability"`
}

// toRecord normalizes a 42.space market into a canonical record.
//
// The top-level probability is the YES outcome's probability: the outcome
// whose name is "yes" (case-insensitive) or whose outcome_id is "1". A
// market without a resolution timestamp gets a synthetic end date 30 days
// out from now.
func (m *hasuraMarket) toRecord(now time.Time) (domain.MarketRecord, error) {
	if m.MarketAddress == "" {
		return domain.MarketRecord{}, fmt.Errorf("%w: missing market address", domain.ErrBadRecord)
	}
	if strings.TrimSpace(m.Question) == "" {
		return domain.MarketRecord{}, fmt.Errorf("%w: market %s has no question", domain.ErrBadRecord, m.MarketAddress)
	}

	endDate := parseTimestamp(m.ResolutionTimestamp)
	if endDate == nil {
		t := now.Add(defaultHorizon).UTC()
		endDate = &t
	}

	rec := domain.MarketRecord{
		ExternalID:  m.MarketAddress,
		Platform:    domain.PlatformFortyTwo,
		Title:       m.Question,
		Slug:        strings.ToLower(m.MarketAddress),
		Description: m.Question,
		EndDate:     endDate,
		Probability: m.yesProbability(),
		Volume:      parseFloatOrZero(m.Volume),
		Liquidity:   parseOptionalFloat(m.Liquidity),
		Status:      mapStatus(m.Status),
		Outcomes:    m.toOutcomes(),
	}
	if url, ok := marketurl.BuildURL("42space", m.MarketAddress, marketurl.Extra{}); ok {
		rec.SourceURL = url
	}
	if m.QuestionID != "" {
		rec.Extra = map[string]string{"question_id": m.QuestionID}
	}
	return rec, nil
}

// yesProbability extracts the YES outcome's probability, if any.
func (m *hasuraMarket) yesProbability() *float64 {
	for _, o := range m.Outcomes {
		if strings.EqualFold(o.Name, "yes") || o.OutcomeID == "1" {
			return o.Probability
		}
	}
	return nil
}

func (m *hasuraMarket) toOutcomes() []domain.Outcome {
	outcomes := make([]domain.Outcome, 0, len(m.Outcomes))
	for _, o := range m.Outcomes {
		outcomes = append(outcomes, domain.Outcome{
			Name:        o.Name,
			Probability: o.Probability,
			ExternalID:  o.OutcomeID,
		})
	}
	return outcomes
}

func mapStatus(s string) domain.MarketStatus {
	switch strings.ToLower(s) {
	case "active":
		return domain.MarketStatusActive
	case "pending":
		return domain.MarketStatusPending
	case "resolved":
		return domain.MarketStatusResolved
	default:
		return domain.MarketStatusDraft
	}
}

// parseTimestamp accepts either RFC 3339 or unix-seconds strings, returning
// nil when neither parses.
func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
		t := time.Unix(secs, 0).UTC()
		return &t
	}
	return nil
}

func parseFloatOrZero(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

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

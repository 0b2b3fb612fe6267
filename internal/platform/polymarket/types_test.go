package polymarket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

func TestToRecordFull(t *testing.T) {
	m := subgraphMarket{
		ID:                 "0xabc123",
		Question:           "Will Bitcoin reach $100k by 2025?",
		Slug:               "will-bitcoin-reach-100k-by-2025",
		Description:        "Resolves YES if BTC trades at or above $100,000.",
		EndDate:            "1735689600", // 2025-01-01T00:00:00Z
		Volume:             "1500000000000000000000",
		Liquidity:          "250000000000000000000",
		OutcomeTokenPrices: []string{"0.62", "0.38"},
		Outcomes:           []string{"Yes", "No"},
		Category:           "Crypto",
		Tags:               []string{"bitcoin", "price"},
	}

	rec, err := m.toRecord()
	require.NoError(t, err)

	assert.Equal(t, "0xabc123", rec.ExternalID)
	assert.Equal(t, domain.PlatformPolymarket, rec.Platform)
	assert.Equal(t, "Will Bitcoin reach $100k by 2025?", rec.Title)
	assert.Equal(t, "will-bitcoin-reach-100k-by-2025", rec.Slug)

	require.NotNil(t, rec.EndDate)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *rec.EndDate)

	require.NotNil(t, rec.Probability)
	assert.InDelta(t, 0.62, *rec.Probability, 1e-9)

	assert.InDelta(t, 1500.0, rec.Volume, 1e-9)
	require.NotNil(t, rec.Liquidity)
	assert.InDelta(t, 250.0, *rec.Liquidity, 1e-9)

	assert.Equal(t, domain.MarketStatusActive, rec.Status)
	assert.Equal(t, "Crypto", rec.Category)
	assert.Equal(t, "https://polymarket.com/market/will-bitcoin-reach-100k-by-2025", rec.SourceURL)

	require.Len(t, rec.Outcomes, 2)
	assert.Equal(t, "Yes", rec.Outcomes[0].Name)
	require.NotNil(t, rec.Outcomes[0].Probability)
	assert.InDelta(t, 0.62, *rec.Outcomes[0].Probability, 1e-9)
	require.NotNil(t, rec.Outcomes[1].Probability)
	assert.InDelta(t, 0.38, *rec.Outcomes[1].Probability, 1e-9)
}

func TestToRecordFallbacks(t *testing.T) {
	m := subgraphMarket{
		ID:       "0xdef456",
		Question: "Will it rain tomorrow?",
	}

	rec, err := m.toRecord()
	require.NoError(t, err)

	assert.Equal(t, "0xdef456", rec.Slug, "slug falls back to id")
	assert.Equal(t, "Will it rain tomorrow?", rec.Description, "description falls back to question")
	assert.Nil(t, rec.EndDate)
	assert.Nil(t, rec.Probability)
	assert.Zero(t, rec.Volume)
	assert.Nil(t, rec.Liquidity)
	assert.Empty(t, rec.Outcomes)
}

func TestToRecordDegradedFields(t *testing.T) {
	m := subgraphMarket{
		ID:                 "0x777",
		Question:           "Degraded market",
		EndDate:            "not-a-timestamp",
		Volume:             "garbage",
		Liquidity:          "also-garbage",
		OutcomeTokenPrices: []string{"nope", "0.4"},
		Outcomes:           []string{"Yes", "No"},
	}

	rec, err := m.toRecord()
	require.NoError(t, err)

	assert.Nil(t, rec.EndDate)
	assert.Nil(t, rec.Probability, "unparsable first price yields nil probability")
	assert.Zero(t, rec.Volume)
	assert.Nil(t, rec.Liquidity)

	require.Len(t, rec.Outcomes, 2)
	assert.Nil(t, rec.Outcomes[0].Probability)
	require.NotNil(t, rec.Outcomes[1].Probability)
	assert.InDelta(t, 0.4, *rec.Outcomes[1].Probability, 1e-9)
}

func TestToRecordRejectsMissingID(t *testing.T) {
	m := subgraphMarket{Question: "No id here"}
	_, err := m.toRecord()
	require.ErrorIs(t, err, domain.ErrBadRecord)
}

func TestToRecordRejectsBlankQuestion(t *testing.T) {
	m := subgraphMarket{ID: "0x1", Question: "   "}
	_, err := m.toRecord()
	require.ErrorIs(t, err, domain.ErrBadRecord)
}

func TestParseUnixSeconds(t *testing.T) {
	assert.Nil(t, parseUnixSeconds(""))
	assert.Nil(t, parseUnixSeconds("abc"))
	assert.Nil(t, parseUnixSeconds("0"))
	assert.Nil(t, parseUnixSeconds("-5"))

	ts := parseUnixSeconds("1735689600")
	require.NotNil(t, ts)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *ts)
}

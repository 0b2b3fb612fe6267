package fortytwo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

func floatPtr(f float64) *float64 { return &f }

func TestToRecordFull(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := hasuraMarket{
		MarketAddress: "0xAbCd1234567890aBcD1234567890AbCd12345678",
		Question:      "Will ETH ship the next upgrade this quarter?",
		QuestionID:    "q-42",
		Status:        "active",
		Volume:        "12500.5",
		Liquidity:     "800",
		Outcomes: []hasuraOutcome{
			{OutcomeID: "1", Name: "Yes", Probability: floatPtr(0.71)},
			{OutcomeID: "2", Name: "No", Probability: floatPtr(0.29)},
		},
		ResolutionTimestamp: "2025-09-30T00:00:00Z",
	}

	rec, err := m.toRecord(now)
	require.NoError(t, err)

	assert.Equal(t, m.MarketAddress, rec.ExternalID)
	assert.Equal(t, domain.PlatformFortyTwo, rec.Platform)
	assert.Equal(t, "0xabcd1234567890abcd1234567890abcd12345678", rec.Slug, "slug is the lowercased address")
	assert.Equal(t, rec.Title, rec.Description, "description mirrors the question")

	require.NotNil(t, rec.EndDate)
	assert.Equal(t, time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), *rec.EndDate)

	require.NotNil(t, rec.Probability)
	assert.InDelta(t, 0.71, *rec.Probability, 1e-9)

	assert.InDelta(t, 12500.5, rec.Volume, 1e-9)
	require.NotNil(t, rec.Liquidity)
	assert.InDelta(t, 800.0, *rec.Liquidity, 1e-9)

	assert.Equal(t, domain.MarketStatusActive, rec.Status)
	assert.Equal(t, "https://42.space/event/"+m.MarketAddress, rec.SourceURL)
	assert.Equal(t, map[string]string{"question_id": "q-42"}, rec.Extra)
	require.Len(t, rec.Outcomes, 2)
}

func TestToRecordDefaultEndDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	m := hasuraMarket{
		MarketAddress: "0x1111111111111111111111111111111111111111",
		Question:      "No timestamp here",
		Status:        "pending",
	}

	rec, err := m.toRecord(now)
	require.NoError(t, err)

	require.NotNil(t, rec.EndDate)
	assert.Equal(t, now.Add(30*24*time.Hour), *rec.EndDate, "missing resolution timestamp defaults to 30 days out")
	assert.Equal(t, domain.MarketStatusPending, rec.Status)
}

func TestYesProbability(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []hasuraOutcome
		want     *float64
	}{
		{
			name: "matched by name case-insensitively",
			outcomes: []hasuraOutcome{
				{OutcomeID: "7", Name: "YES", Probability: floatPtr(0.4)},
			},
			want: floatPtr(0.4),
		},
		{
			name: "matched by outcome id",
			outcomes: []hasuraOutcome{
				{OutcomeID: "2", Name: "Lower", Probability: floatPtr(0.3)},
				{OutcomeID: "1", Name: "Higher", Probability: floatPtr(0.7)},
			},
			want: floatPtr(0.7),
		},
		{
			name: "no yes outcome",
			outcomes: []hasuraOutcome{
				{OutcomeID: "5", Name: "Maybe", Probability: floatPtr(0.5)},
			},
			want: nil,
		},
		{
			name:     "no outcomes at all",
			outcomes: nil,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := hasuraMarket{Outcomes: tt.outcomes}
			got := m.yesProbability()
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, domain.MarketStatusActive, mapStatus("active"))
	assert.Equal(t, domain.MarketStatusActive, mapStatus("Active"))
	assert.Equal(t, domain.MarketStatusPending, mapStatus("pending"))
	assert.Equal(t, domain.MarketStatusResolved, mapStatus("resolved"))
	assert.Equal(t, domain.MarketStatusDraft, mapStatus("paused"))
	assert.Equal(t, domain.MarketStatusDraft, mapStatus(""))
}

func TestParseTimestampFormats(t *testing.T) {
	rfc := parseTimestamp("2025-03-15T08:30:00Z")
	require.NotNil(t, rfc)
	assert.Equal(t, time.Date(2025, 3, 15, 8, 30, 0, 0, time.UTC), *rfc)

	unix := parseTimestamp("1735689600")
	require.NotNil(t, unix)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *unix)

	assert.Nil(t, parseTimestamp(""))
	assert.Nil(t, parseTimestamp("soon"))
}

func TestToRecordRejectsBadRows(t *testing.T) {
	now := time.Now()

	_, err := (&hasuraMarket{Question: "no address"}).toRecord(now)
	require.ErrorIs(t, err, domain.ErrBadRecord)

	_, err = (&hasuraMarket{MarketAddress: "0x1", Question: " "}).toRecord(now)
	require.ErrorIs(t, err, domain.ErrBadRecord)
}

package correlate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

func datePtr(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func event(name, category string, date *time.Time, keywords ...string) domain.CalendarEvent {
	return domain.CalendarEvent{
		Name:     name,
		Category: category,
		Date:     date,
		Keywords: keywords,
	}
}

func market(id, title, category string, end *time.Time) domain.MarketRecord {
	return domain.MarketRecord{
		ExternalID: id,
		Platform:   domain.PlatformPolymarket,
		Title:      title,
		Category:   category,
		EndDate:    end,
	}
}

func TestCorrelateKeywordAndCategory(t *testing.T) {
	events := []domain.CalendarEvent{
		event("Super Bowl LIX", "Sports", nil, "super bowl", "nfl"),
	}
	markets := []domain.MarketRecord{
		market("m1", "Will the Chiefs win the Super Bowl? NFL futures", "Sports", nil),
	}

	matches := Correlate(events, markets)
	require.Len(t, matches, 1)
	// Two keyword hits (+4), category match (+3), no shared tokens of
	// length >= 4 beyond "super" ("super" appears in both texts) — count it.
	assert.GreaterOrEqual(t, matches[0].Score, 7)
	assert.Equal(t, domain.PlatformPolymarket, matches[0].Platform)
}

func TestCorrelateDateProximityBuckets(t *testing.T) {
	ev := event("Fed Rate Decision", "Economics", datePtr("2025-03-19"), "fomc")

	near := market("near", "fomc meeting outcome resolution", "", datePtr("2025-03-21"))
	far := market("far", "fomc meeting outcome resolution", "", datePtr("2025-04-10"))
	distant := market("distant", "fomc meeting outcome resolution", "", datePtr("2025-08-01"))

	matches := Correlate([]domain.CalendarEvent{ev}, []domain.MarketRecord{near, far, distant})
	require.Len(t, matches, 3)

	scoreByID := map[string]int{}
	for _, m := range matches {
		scoreByID[m.Market.ExternalID] = m.Score
	}
	assert.Equal(t, scoreByID["near"], scoreByID["distant"]+2, "within 7 days adds +2")
	assert.Equal(t, scoreByID["far"], scoreByID["distant"]+1, "within 30 days adds +1")
}

func TestCorrelateThresholdDiscardsWeakPairs(t *testing.T) {
	// No keyword hits, different categories, dates >30 days apart; one
	// shared token below threshold must not surface the pair.
	ev := event("Wimbledon Championships", "Sports", datePtr("2025-06-30"), "wimbledon")
	m := market("m1", "Inflation championships bracket for forecasters", "Economics", datePtr("2025-12-31"))

	assert.Empty(t, Correlate([]domain.CalendarEvent{ev}, []domain.MarketRecord{m}))
}

func TestCorrelateTokenOverlapSetSemantics(t *testing.T) {
	// "bitcoin" repeats three times in the market text; as a shared token it
	// still contributes exactly once.
	ev := event("Crypto Event", "", nil, "bitcoin")
	ev.Description = "bitcoin outlook"
	single := market("single", "bitcoin outlook", "", nil)
	repeated := market("repeated", "bitcoin bitcoin bitcoin outlook", "", nil)

	matches := Correlate([]domain.CalendarEvent{ev}, []domain.MarketRecord{single, repeated})
	require.Len(t, matches, 2)
	assert.Equal(t, matches[0].Score, matches[1].Score)
}

func TestCorrelateDeterministicOrdering(t *testing.T) {
	events := []domain.CalendarEvent{
		event("Bitcoin Halving Anniversary", "Crypto", datePtr("2025-04-20"), "bitcoin", "halving"),
		event("Super Bowl LIX", "Sports", datePtr("2025-02-09"), "super bowl", "nfl"),
	}
	markets := []domain.MarketRecord{
		market("a", "Will bitcoin trade above 100k after the halving event", "Crypto", datePtr("2025-04-22")),
		market("b", "Will the nfl super bowl champion repeat", "Sports", datePtr("2025-02-10")),
		market("c", "Will bitcoin dominance increase", "Crypto", nil),
	}

	first := Correlate(events, markets)
	require.NotEmpty(t, first)

	for i := 0; i < 10; i++ {
		again := Correlate(events, markets)
		require.Equal(t, first, again, "run %d differs", i)
	}

	// Sorted by score descending.
	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, first[i-1].Score, first[i].Score)
	}
}

func TestCorrelateDeduplicatesEventMarketPairs(t *testing.T) {
	ev := event("Bitcoin Halving Anniversary", "Crypto", nil, "bitcoin", "halving")
	m := market("m1", "bitcoin halving odds market", "Crypto", nil)

	// The same market listed twice (e.g. drawn from cache and store) must
	// produce a single match for the pair.
	matches := Correlate([]domain.CalendarEvent{ev}, []domain.MarketRecord{m, m})
	assert.Len(t, matches, 1)
}

func TestCorrelateEmptyInputs(t *testing.T) {
	assert.Empty(t, Correlate(nil, nil))
	assert.Empty(t, Correlate([]domain.CalendarEvent{event("x", "", nil)}, nil))
	assert.Empty(t, Correlate(nil, []domain.MarketRecord{market("m", "t", "", nil)}))
}

package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMajorEventsWellFormed(t *testing.T) {
	events := MajorEvents()
	require.NotEmpty(t, events)

	for _, ev := range events {
		assert.NotEmpty(t, ev.Name)
		assert.NotEmpty(t, ev.Category)
		assert.NotEmpty(t, ev.Keywords, "event %s has no keywords", ev.Name)
		require.NotNil(t, ev.Date, "event %s has no date", ev.Name)
		assert.Equal(t, 2025, ev.Date.Year())
	}
}

func TestSearch(t *testing.T) {
	// Substring of combined event text.
	hits := Search("bitcoin")
	require.NotEmpty(t, hits)
	assert.Equal(t, "Bitcoin Halving Anniversary", hits[0].Name)

	// Query containing an event keyword also matches.
	hits = Search("who wins the super bowl this year")
	require.NotEmpty(t, hits)
	assert.Equal(t, "Super Bowl LIX", hits[0].Name)

	assert.Empty(t, Search("zzzz-no-such-topic"))
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name, description, want string
	}{
		{"Virginia Gubernatorial Election", "", "Politics"},
		{"Will BTC hit 100k", "bitcoin price prediction", "Crypto"},
		{"Who wins the Super Bowl", "", "Sports"},
		{"Fed decision", "interest rate cut odds", "Economics"},
		{"Artemis II", "nasa lunar mission", "Science"},
		{"Something unclassifiable", "", "General"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Categorize(tt.name, tt.description), "%s", tt.name)
	}
}

func TestCategorizeDeterministic(t *testing.T) {
	// "election" (Politics) and "bitcoin" (Crypto) both match; rule order
	// decides, so Politics must win every time.
	for i := 0; i < 50; i++ {
		assert.Equal(t, "Politics", Categorize("bitcoin election special", ""))
	}
}

package marketurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		platform string
		id       string
		extra    Extra
		want     string
	}{
		{"polymarket", "will-bitcoin-reach-100k-by-2025", Extra{}, "https://polymarket.com/market/will-bitcoin-reach-100k-by-2025"},
		{"42space", "0xCcF0379a3177bc7CC2257e7c02318327EF2A61De", Extra{}, "https://42.space/event/0xCcF0379a3177bc7CC2257e7c02318327EF2A61De"},
		// Missing 0x prefix is normalized before interpolation.
		{"42space", "CcF0379a3177bc7CC2257e7c02318327EF2A61De", Extra{}, "https://42.space/event/0xCcF0379a3177bc7CC2257e7c02318327EF2A61De"},
		{"manifold", "will-ai-be-transformative-by-2030", Extra{Username: "EliezerYudkowsky"}, "https://manifold.markets/EliezerYudkowsky/will-ai-be-transformative-by-2030"},
		{"manifold", "some-market", Extra{}, "https://manifold.markets/markets/some-market"},
		{"metaculus", "12345", Extra{}, "https://metaculus.com/questions/12345/"},
		{"kalshi", "FED-23DEC", Extra{}, "https://kalshi.com/markets/FED-23DEC"},
		{"predictit", "7456", Extra{}, "https://www.predictit.org/markets/detail/7456"},
		{"futuur", "123456", Extra{Slug: "will-bitcoin-hit-100k"}, "https://futuur.com/q/123456/will-bitcoin-hit-100k"},
		{"futuur", "123456", Extra{}, "https://futuur.com/q/123456"},
		// Platform names are case-insensitive.
		{"Polymarket", "abc", Extra{}, "https://polymarket.com/market/abc"},
	}

	for _, tt := range tests {
		got, ok := BuildURL(tt.platform, tt.id, tt.extra)
		require.True(t, ok, "platform %s", tt.platform)
		assert.Equal(t, tt.want, got)
	}
}

func TestBuildURLUnknownPlatform(t *testing.T) {
	got, ok := BuildURL("augur", "some-id", Extra{})
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestParseURLRoundTrip(t *testing.T) {
	// Every platform with an unambiguous inverse must round-trip.
	tests := []struct {
		platform string
		id       string
	}{
		{"polymarket", "will-bitcoin-reach-100k-by-2025"},
		{"42space", "0xCcF0379a3177bc7CC2257e7c02318327EF2A61De"},
		{"metaculus", "12345"},
		{"kalshi", "FED-23DEC"},
		{"predictit", "7456"},
		{"futuur", "123456"},
	}

	for _, tt := range tests {
		built, ok := BuildURL(tt.platform, tt.id, Extra{})
		require.True(t, ok)

		parsed := ParseURL(built)
		assert.Equal(t, tt.platform, parsed.Platform, "url %s", built)
		assert.Equal(t, tt.id, parsed.ID, "url %s", built)
	}
}

func TestParseURLManifold(t *testing.T) {
	parsed := ParseURL("https://manifold.markets/EliezerYudkowsky/will-ai-be-transformative-by-2030")
	assert.Equal(t, "manifold", parsed.Platform)
	assert.Equal(t, "will-ai-be-transformative-by-2030", parsed.ID)
}

func TestParseURLUnrecognized(t *testing.T) {
	for _, raw := range []string{
		"https://example.com/market/foo",
		"https://polymarket.com/",
		"https://42.space/event/not-an-address",
		"::bad::url::",
		"",
	} {
		assert.Equal(t, ParseResult{}, ParseURL(raw), "url %q", raw)
	}
}

func TestIsChainAddress(t *testing.T) {
	assert.True(t, IsChainAddress("0xCcF0379a3177bc7CC2257e7c02318327EF2A61De"))
	assert.False(t, IsChainAddress("CcF0379a3177bc7CC2257e7c02318327EF2A61De"), "missing prefix")
	assert.False(t, IsChainAddress("0xCcF0379a3177bc7CC2257e7c02318327EF2A61D"), "too short")
	assert.False(t, IsChainAddress("0xZZF0379a3177bc7CC2257e7c02318327EF2A61De"), "not hex")
	assert.False(t, IsChainAddress(""))
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "0xCcF0...61De", FormatAddress("0xCcF0379a3177bc7CC2257e7c02318327EF2A61De"))
	// Invalid addresses pass through untouched.
	assert.Equal(t, "not-an-address", FormatAddress("not-an-address"))
}

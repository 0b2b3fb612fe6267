// Package marketurl maps (platform, market identifier) pairs to canonical
// external URLs and back. Each platform has exactly one URL template,
// registered in the builders table below, so a template change is a
// one-line edit.
package marketurl

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Extra carries optional, platform-specific URL components.
type Extra struct {
	// Username is required by Manifold URLs; defaults to "markets".
	Username string
	// Slug is an optional trailing slug for Futuur URLs.
	Slug string
}

// builder renders the canonical URL for one platform.
type builder func(id string, extra Extra) string

// builders is the per-platform URL strategy table. It is populated here at
// init and read-only afterwards.
var builders = map[string]builder{
	// 42.space routes markets by their contract address.
	// https://42.space/event/0xCcF0379a3177bc7CC2257e7c02318327EF2A61De
	"42space": func(id string, _ Extra) string {
		if !strings.HasPrefix(id, "0x") {
			id = "0x" + id
		}
		return "https://42.space/event/" + id
	},

	// https://polymarket.com/market/will-bitcoin-reach-100k-by-2025
	"polymarket": func(id string, _ Extra) string {
		return "https://polymarket.com/market/" + id
	},

	// https://manifold.markets/{username}/{slug}
	"manifold": func(id string, extra Extra) string {
		username := extra.Username
		if username == "" {
			username = "markets"
		}
		return fmt.Sprintf("https://manifold.markets/%s/%s", username, id)
	},

	// https://metaculus.com/questions/12345/
	"metaculus": func(id string, _ Extra) string {
		return fmt.Sprintf("https://metaculus.com/questions/%s/", id)
	},

	// https://kalshi.com/markets/FED-23DEC
	"kalshi": func(id string, _ Extra) string {
		return "https://kalshi.com/markets/" + id
	},

	// https://www.predictit.org/markets/detail/7456
	"predictit": func(id string, _ Extra) string {
		return "https://www.predictit.org/markets/detail/" + id
	},

	// https://futuur.com/q/123456/will-bitcoin-hit-100k
	"futuur": func(id string, extra Extra) string {
		if extra.Slug != "" {
			return fmt.Sprintf("https://futuur.com/q/%s/%s", id, extra.Slug)
		}
		return "https://futuur.com/q/" + id
	},
}

// BuildURL returns the canonical URL for a market on the given platform.
// The second return value is false for platforms without a registered
// template; an unknown platform is not an error.
func BuildURL(platform, marketID string, extra Extra) (string, bool) {
	b, ok := builders[strings.ToLower(platform)]
	if !ok {
		return "", false
	}
	return b(marketID, extra), true
}

// ParseResult is the best-effort inverse of BuildURL. Both fields are empty
// when the URL is unrecognized.
type ParseResult struct {
	Platform string
	ID       string
}

var (
	fortyTwoPath   = regexp.MustCompile(`/event/(0x[a-fA-F0-9]+)`)
	polymarketPath = regexp.MustCompile(`/market/([^/]+)`)
	manifoldPath   = regexp.MustCompile(`^/([^/]+)/([^/]+)`)
	metaculusPath  = regexp.MustCompile(`/questions/(\d+)`)
	kalshiPath     = regexp.MustCompile(`/markets/([^/]+)`)
	predictitPath  = regexp.MustCompile(`/markets/detail/(\d+)`)
	futuurPath     = regexp.MustCompile(`/q/([^/]+)`)
)

// ParseURL extracts the platform and market identifier from a market URL.
// Unrecognized hosts and malformed paths yield an empty result, never an
// error.
func ParseURL(raw string) ParseResult {
	u, err := url.Parse(raw)
	if err != nil {
		return ParseResult{}
	}

	host := strings.ToLower(u.Hostname())
	path := u.Path

	match := func(re *regexp.Regexp, group int) string {
		m := re.FindStringSubmatch(path)
		if m == nil {
			return ""
		}
		return m[group]
	}

	switch {
	case strings.Contains(host, "42.space"):
		if id := match(fortyTwoPath, 1); id != "" {
			return ParseResult{Platform: "42space", ID: id}
		}
	case strings.Contains(host, "polymarket.com"):
		if id := match(polymarketPath, 1); id != "" {
			return ParseResult{Platform: "polymarket", ID: id}
		}
	case strings.Contains(host, "manifold.markets"):
		if id := match(manifoldPath, 2); id != "" {
			return ParseResult{Platform: "manifold", ID: id}
		}
	case strings.Contains(host, "metaculus.com"):
		if id := match(metaculusPath, 1); id != "" {
			return ParseResult{Platform: "metaculus", ID: id}
		}
	case strings.Contains(host, "predictit.org"):
		if id := match(predictitPath, 1); id != "" {
			return ParseResult{Platform: "predictit", ID: id}
		}
	case strings.Contains(host, "kalshi.com"):
		if id := match(kalshiPath, 1); id != "" {
			return ParseResult{Platform: "kalshi", ID: id}
		}
	case strings.Contains(host, "futuur.com"):
		if id := match(futuurPath, 1); id != "" {
			return ParseResult{Platform: "futuur", ID: id}
		}
	}

	return ParseResult{}
}

// IsChainAddress reports whether s is a 0x-prefixed, 40-hex-digit chain
// address. FortyTwo market identifiers must satisfy this before they are
// interpolated into a URL.
func IsChainAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

// FormatAddress truncates a valid chain address for display, e.g.
// "0xCcF037...61De". Anything that is not a valid address is returned
// unchanged.
func FormatAddress(s string) string {
	if !IsChainAddress(s) {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}

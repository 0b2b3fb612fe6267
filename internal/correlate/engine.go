// Package correlate links calendar events to markets with an additive
// heuristic relevance score. Scoring is pure: identical inputs always yield
// identical ordered output.
package correlate

import (
	"sort"
	"strings"
	"time"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// Scoring weights and thresholds. A pair accumulates points from four
// independent signals; pairs at or below minScore are discarded.
const (
	keywordWeight  = 2
	categoryWeight = 3
	dateNearWeight = 2 // end dates within 7 days
	dateFarWeight  = 1 // end dates within 30 days
	minScore       = 2
	minTokenLen    = 4 // tokens shorter than this are noise ("the", "will")
	dateNearDays   = 7
	dateFarDays    = 30
)

// Correlate scores every event against every market and returns the matches
// above threshold, sorted by score descending with ties in encounter order.
// At most one match is returned per (event name, market) pair.
//
// The scan is O(events x markets); with curated calendars of a few dozen
// events and a few hundred markets this is well under any budget. Should
// inputs grow, pre-bucketing markets by category and keyword token is the
// intended evolution.
func Correlate(events []domain.CalendarEvent, markets []domain.MarketRecord) []domain.Match {
	var matches []domain.Match

	for _, event := range events {
		eventText := strings.ToLower(event.Name + " " + event.Description + " " + strings.Join(event.Keywords, " "))
		eventTokens := tokenize(eventText)

		for _, market := range markets {
			marketText := strings.ToLower(market.Title + " " + market.Description)

			score := 0

			// Each keyword scores once, however often it appears.
			for _, kw := range event.Keywords {
				if strings.Contains(marketText, strings.ToLower(kw)) {
					score += keywordWeight
				}
			}

			// Exact category equality on the canonical category string.
			if event.Category != "" && market.Category != "" && event.Category == market.Category {
				score += categoryWeight
			}

			if event.Date != nil && market.EndDate != nil {
				days := absDays(event.Date.Sub(*market.EndDate))
				switch {
				case days <= dateNearDays:
					score += dateNearWeight
				case days <= dateFarDays:
					score += dateFarWeight
				}
			}

			// Shared-token overlap with set semantics: each distinct token
			// value counts once regardless of repetition in either text.
			for token := range tokenize(marketText) {
				if eventTokens[token] {
					score++
				}
			}

			if score > minScore {
				matches = append(matches, domain.Match{
					Event:    event,
					Market:   market,
					Score:    score,
					Platform: market.Platform,
				})
			}
		}
	}

	// Stable sort keeps encounter order among equal scores, which also makes
	// the dedup below deterministic: the highest-scoring, earliest-seen match
	// survives for each pair.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	seen := make(map[string]bool, len(matches))
	out := matches[:0]
	for _, m := range matches {
		key := m.Event.Name + "\x00" + string(m.Market.Platform) + "\x00" + m.Market.ExternalID
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// tokenize splits text on whitespace and keeps distinct tokens of at least
// minTokenLen characters.
func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(text) {
		if len(tok) >= minTokenLen {
			tokens[tok] = true
		}
	}
	return tokens
}

// absDays converts a duration to whole days, ignoring sign.
func absDays(d time.Duration) int {
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

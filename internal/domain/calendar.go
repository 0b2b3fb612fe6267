package domain

import "time"

// CalendarEvent is a curated real-world event that markets are correlated
// against. Events are immutable once loaded for a correlation run.
type CalendarEvent struct {
	Name        string     `json:"name"`
	Date        *time.Time `json:"date,omitempty"`
	Category    string     `json:"category"`
	Subcategory string     `json:"subcategory,omitempty"`
	Description string     `json:"description,omitempty"`
	Keywords    []string   `json:"keywords,omitempty"`
}

// Match links a calendar event to a market with a heuristic relevance score.
// Matches are derived, never persisted; they are recomputed on every
// correlation run and deduplicated by the (event name, market) pair.
type Match struct {
	Event    CalendarEvent `json:"event"`
	Market   MarketRecord  `json:"market"`
	Score    int           `json:"score"`
	Platform Platform      `json:"platform"`
}

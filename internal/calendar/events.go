// Package calendar provides the curated list of major real-world events that
// markets are correlated against, plus keyword-driven categorization and
// search over that list.
package calendar

import (
	"strings"
	"time"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic("calendar: bad date literal " + s)
	}
	return &t
}

// MajorEvents returns the curated calendar for 2025. The slice is freshly
// allocated on each call; callers may reorder or filter it freely.
func MajorEvents() []domain.CalendarEvent {
	return []domain.CalendarEvent{
		// Politics & elections
		{
			Name:        "Virginia Gubernatorial Election",
			Date:        day("2025-11-04"),
			Category:    "Politics",
			Subcategory: "US Elections",
			Description: "Virginia elects a new governor",
			Keywords:    []string{"virginia", "governor", "election", "glenn youngkin"},
		},
		{
			Name:        "UK Local Elections",
			Date:        day("2025-05-01"),
			Category:    "Politics",
			Subcategory: "UK Elections",
			Description: "Local council elections across the UK",
			Keywords:    []string{"uk", "local elections", "council", "labour", "conservative"},
		},
		{
			Name:        "German Federal Election",
			Date:        day("2025-09-28"),
			Category:    "Politics",
			Subcategory: "European Elections",
			Description: "Germany elects new Bundestag",
			Keywords:    []string{"germany", "bundestag", "election", "scholz", "cdu"},
		},

		// Economics & finance
		{
			Name:        "Fed Rate Decision - Q1",
			Date:        day("2025-03-19"),
			Category:    "Economics",
			Subcategory: "Central Banks",
			Description: "Federal Reserve interest rate decision",
			Keywords:    []string{"fed", "interest rate", "fomc", "powell", "inflation"},
		},
		{
			Name:        "Bitcoin Halving Anniversary",
			Date:        day("2025-04-20"),
			Category:    "Crypto",
			Subcategory: "Bitcoin",
			Description: "1 year since last Bitcoin halving",
			Keywords:    []string{"bitcoin", "halving", "btc", "crypto"},
		},
		{
			Name:        "Ethereum Pectra Upgrade",
			Date:        day("2025-03-01"),
			Category:    "Crypto",
			Subcategory: "Ethereum",
			Description: "Major Ethereum network upgrade",
			Keywords:    []string{"ethereum", "pectra", "eth", "upgrade"},
		},

		// Sports
		{
			Name:        "Super Bowl LIX",
			Date:        day("2025-02-09"),
			Category:    "Sports",
			Subcategory: "NFL",
			Description: "NFL Championship game in New Orleans",
			Keywords:    []string{"super bowl", "nfl", "football", "championship"},
		},
		{
			Name:        "NBA Finals Start",
			Date:        day("2025-06-05"),
			Category:    "Sports",
			Subcategory: "NBA",
			Description: "NBA Championship series begins",
			Keywords:    []string{"nba", "finals", "basketball", "championship"},
		},
		{
			Name:        "Wimbledon Championships",
			Date:        day("2025-06-30"),
			Category:    "Sports",
			Subcategory: "Tennis",
			Description: "Tennis Grand Slam at All England Club",
			Keywords:    []string{"wimbledon", "tennis", "grand slam"},
		},
		{
			Name:        "FIFA Club World Cup",
			Date:        day("2025-06-15"),
			Category:    "Sports",
			Subcategory: "Soccer",
			Description: "Expanded 32-team tournament in USA",
			Keywords:    []string{"fifa", "club world cup", "soccer", "football"},
		},

		// Technology & AI
		{
			Name:        "Apple WWDC 2025",
			Date:        day("2025-06-02"),
			Category:    "Technology",
			Subcategory: "Apple",
			Description: "Apple Developer Conference - iOS 19, new products",
			Keywords:    []string{"apple", "wwdc", "ios", "iphone", "developer"},
		},
		{
			Name:        "Google I/O 2025",
			Date:        day("2025-05-14"),
			Category:    "Technology",
			Subcategory: "Google",
			Description: "Google Developer Conference - Android 16, AI updates",
			Keywords:    []string{"google", "io", "android", "ai", "developer"},
		},
		{
			Name:        "Microsoft Build 2025",
			Date:        day("2025-05-19"),
			Category:    "Technology",
			Subcategory: "Microsoft",
			Description: "Microsoft Developer Conference",
			Keywords:    []string{"microsoft", "build", "azure", "windows", "developer"},
		},
		{
			Name:        "GPT-5 Release Window",
			Date:        day("2025-06-01"),
			Category:    "Technology",
			Subcategory: "AI",
			Description: "Expected GPT-5 release timeframe",
			Keywords:    []string{"gpt5", "openai", "chatgpt", "ai", "llm"},
		},

		// Entertainment & culture
		{
			Name:        "Academy Awards (Oscars)",
			Date:        day("2025-03-02"),
			Category:    "Entertainment",
			Subcategory: "Awards",
			Description: "97th Academy Awards ceremony",
			Keywords:    []string{"oscars", "academy awards", "movies", "hollywood"},
		},
		{
			Name:        "Cannes Film Festival",
			Date:        day("2025-05-13"),
			Category:    "Entertainment",
			Subcategory: "Film",
			Description: "78th Cannes Film Festival",
			Keywords:    []string{"cannes", "film festival", "movies", "cinema"},
		},
		{
			Name:        "E3 Gaming Expo",
			Date:        day("2025-06-10"),
			Category:    "Entertainment",
			Subcategory: "Gaming",
			Description: "Electronic Entertainment Expo",
			Keywords:    []string{"e3", "gaming", "xbox", "playstation", "nintendo"},
		},

		// Science & space
		{
			Name:        "Artemis II Moon Mission",
			Date:        day("2025-09-01"),
			Category:    "Science",
			Subcategory: "Space",
			Description: "NASA crewed lunar flyby mission",
			Keywords:    []string{"artemis", "nasa", "moon", "space", "astronaut"},
		},
		{
			Name:        "Total Solar Eclipse - Europe",
			Date:        day("2025-08-12"),
			Category:    "Science",
			Subcategory: "Astronomy",
			Description: "Total solar eclipse visible in parts of Europe",
			Keywords:    []string{"solar eclipse", "astronomy", "europe"},
		},
	}
}

// Search filters the curated calendar for events related to the query. An
// event matches when the query appears in its combined name, description,
// and keyword text, or when the query itself contains one of the event's
// keywords.
func Search(query string) []domain.CalendarEvent {
	queryLower := strings.ToLower(query)

	var out []domain.CalendarEvent
	for _, ev := range MajorEvents() {
		searchText := strings.ToLower(ev.Name + " " + ev.Description + " " + strings.Join(ev.Keywords, " "))
		if strings.Contains(searchText, queryLower) {
			out = append(out, ev)
			continue
		}
		for _, kw := range ev.Keywords {
			if strings.Contains(queryLower, kw) {
				out = append(out, ev)
				break
			}
		}
	}
	return out
}

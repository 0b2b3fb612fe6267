package calendar

import "strings"

// categoryRule keys categorization keywords by category name. Rules are an
// ordered slice, not a map, so classification is deterministic when text
// matches more than one category.
type categoryRule struct {
	name     string
	keywords []string
}

var categoryRules = []categoryRule{
	{"Politics", []string{"election", "vote", "president", "governor", "senate", "congress", "parliament"}},
	{"Sports", []string{"super bowl", "world cup", "olympics", "championship", "finals", "nba", "nfl", "fifa"}},
	{"Crypto", []string{"bitcoin", "ethereum", "crypto", "defi", "nft", "blockchain", "halving"}},
	{"Technology", []string{"apple", "google", "microsoft", "ai", "gpt", "launch", "release"}},
	{"Economics", []string{"fed", "interest rate", "inflation", "gdp", "recession", "earnings"}},
	{"Entertainment", []string{"oscars", "grammys", "movie", "film", "album", "concert"}},
	{"Science", []string{"nasa", "space", "eclipse", "discovery", "research"}},
}

// Categorize assigns a category to an event or market by keyword matching
// over its name and description, falling back to "General".
func Categorize(name, description string) string {
	text := strings.ToLower(name + " " + description)

	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.name
			}
		}
	}
	return "General"
}

package domain

import "time"

// Platform identifies an external prediction-market platform.
type Platform string

const (
	PlatformPolymarket Platform = "polymarket"
	PlatformFortyTwo   Platform = "42space"
)

// MarketStatus represents the lifecycle state of a listed market.
type MarketStatus string

const (
	MarketStatusActive   MarketStatus = "active"
	MarketStatusPending  MarketStatus = "pending"
	MarketStatusResolved MarketStatus = "resolved"
	MarketStatusDraft    MarketStatus = "draft"
)

// Outcome is a single outcome of a market, e.g. "Yes" or "No".
type Outcome struct {
	Name        string   `json:"name"`
	Probability *float64 `json:"probability,omitempty"`
	// ExternalID is the platform-side outcome identifier, when the platform
	// exposes one (FortyTwo's outcome_id). Empty otherwise.
	ExternalID string `json:"external_id,omitempty"`
}

// MarketRecord is the canonical, platform-agnostic shape of a market listing.
// Adapters normalize raw platform payloads into this type; everything
// downstream (upsert engine, correlation engine, rendering) consumes it.
//
// The natural key of a record is (Platform source, ExternalID) — never the
// generated row id. ExternalID is a contract address on FortyTwo and a
// subgraph market id on Polymarket.
type MarketRecord struct {
	ExternalID  string     `json:"external_id"`
	Platform    Platform   `json:"platform"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	// Probability is the implied probability of the affirmative outcome in
	// [0,1], nil when the platform does not expose one.
	Probability *float64     `json:"probability,omitempty"`
	Volume      float64      `json:"volume"`
	Liquidity   *float64     `json:"liquidity,omitempty"`
	Status      MarketStatus `json:"status"`
	Category    string       `json:"category,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Outcomes    []Outcome    `json:"outcomes,omitempty"`
	SourceURL   string       `json:"source_url"`
	// Extra carries platform-specific metadata persisted alongside the
	// record (question_id, market_address, ...).
	Extra map[string]string `json:"extra,omitempty"`
}

// StoredMarket is a MarketRecord as persisted, with its row identity.
type StoredMarket struct {
	ID        int64
	SourceID  int64
	Record    MarketRecord
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarketLookup is the minimal stored state the upsert engine needs to decide
// whether a re-observed market warrants a write.
type MarketLookup struct {
	ID          int64
	Probability *float64
	Volume      float64
}

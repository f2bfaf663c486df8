package models

import "time"

// ContextOrigin distinguishes auto-synthesized rows from manual admin edits.
// Together with Tier it forms the natural key of a context row; both rows can
// coexist and serving picks the most recently updated one.
type ContextOrigin string

const (
	OriginAuto   ContextOrigin = "auto"
	OriginManual ContextOrigin = "manual"
)

// ChangeType tags history ledger entries.
type ChangeType string

const (
	ChangeAutoUpdate ChangeType = "auto_update"
	ChangeManualEdit ChangeType = "manual_edit"
)

// MarketNewsContext is one persisted synthesized (or manually edited) market
// context. Rows are upserted by (Tier, Origin) and never hard-deleted.
type MarketNewsContext struct {
	Tier           Tier          `json:"tier"`
	Origin         ContextOrigin `json:"origin"`
	ContextText    string        `json:"contextText"`
	DataSources    []string      `json:"dataSources"`
	KeyEvents      []string      `json:"keyEvents"`
	AvailableTiers []Tier        `json:"availableTiers"`
	ManualOverride bool          `json:"manualOverride"`
	LastEditedBy   string        `json:"lastEditedBy,omitempty"`
	RawData        string        `json:"rawData,omitempty"`
	LastUpdate     time.Time     `json:"lastUpdate"`
}

// ID returns the legacy synthetic row identifier kept for provenance display.
func (c *MarketNewsContext) ID() string {
	return string(c.Origin) + "-" + string(c.Tier)
}

// ServesTier reports whether this row may be served to the given tier.
func (c *MarketNewsContext) ServesTier(t Tier) bool {
	for _, at := range c.AvailableTiers {
		if at == t {
			return true
		}
	}
	return false
}

// MarketNewsHistoryEntry is one immutable audit record appended on every
// context mutation. AvailableTiers is denormalized from the parent row at
// append time so tier-scoped reads need no join.
type MarketNewsHistoryEntry struct {
	ContextID      string        `json:"contextId"`
	Tier           Tier          `json:"tier"`
	Origin         ContextOrigin `json:"origin"`
	ContextText    string        `json:"contextText"`
	DataSources    []string      `json:"dataSources"`
	KeyEvents      []string      `json:"keyEvents"`
	AvailableTiers []Tier        `json:"availableTiers"`
	ChangeType     ChangeType    `json:"changeType"`
	ChangedBy      string        `json:"changedBy,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// ContextEvent is published to Kafka after every context mutation or cache
// invalidation so sibling instances can react.
type ContextEvent struct {
	Kind       string        `json:"kind"` // "context.updated" | "cache.invalidate"
	Tier       Tier          `json:"tier,omitempty"`
	Origin     ContextOrigin `json:"origin,omitempty"`
	ChangeType ChangeType    `json:"changeType,omitempty"`
	Pattern    string        `json:"pattern,omitempty"`
	At         time.Time     `json:"at"`
}

// CacheStats is the introspection snapshot served by the diagnostics endpoint.
type CacheStats struct {
	Size               int              `json:"size"`
	Keys               []string         `json:"keys"`
	MarketContextCache MarketCacheStats `json:"marketContextCache"`
}

// MarketCacheStats describes the market-context portion of the cache.
type MarketCacheStats struct {
	Size        int       `json:"size"`
	Keys        []string  `json:"keys"`
	LastRefresh time.Time `json:"lastRefresh"`
}

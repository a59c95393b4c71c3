// Package selectors assembles the prioritized DKIM selector candidate list
// for a domain scan. Candidates are merged from four provenance sources
// (a caller-supplied custom selector, admin-managed selectors, previously
// discovered selectors, and a process-wide brute-force pool), deduplicated
// with the highest-priority occurrence winning, and capped for performance.
package selectors

import (
	"context"
	"regexp"
	"time"
)

// Source identifies where a selector candidate came from.
type Source string

const (
	SourceCustom     Source = "custom"
	SourceAdmin      Source = "admin"
	SourceDiscovered Source = "discovered"
	SourceBruteForce Source = "brute_force"
)

// Priority ranks. Lower is higher priority; ties keep insertion order.
const (
	RankCustom      = 1
	RankAdminHigh   = 2
	RankAdminMedium = 3
	RankAdminLow    = 4
	RankDiscovered  = 5
	RankBruteForce  = 6
)

// Tier is the admin-declared priority tier for a managed selector.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Candidate is one entry in a domain's probe catalog.
type Candidate struct {
	Selector string
	Source   Source
	Rank     int
	Verified bool
}

// AdminSelector is a selector managed by an operator for a domain.
type AdminSelector struct {
	Selector string
	Tier     Tier
	Verified bool
	Notes    string
	AddedBy  string
}

// DiscoveredSelector is a selector found by earlier scans or mail analysis.
type DiscoveredSelector struct {
	Selector   string
	Source     string
	UsageCount int
	Verified   bool
	LastSeen   time.Time
}

// ProfileStore is the external per-domain selector profile collaborator.
// Implementations must be safe for concurrent use.
type ProfileStore interface {
	// AdminSelectors returns the admin-managed selectors for a domain.
	AdminSelectors(ctx context.Context, domain string) ([]AdminSelector, error)

	// DiscoveredSelectors returns selectors discovered for a domain.
	DiscoveredSelectors(ctx context.Context, domain string) ([]DiscoveredSelector, error)

	// AddDiscoveredSelector upserts a discovered selector, keyed by the
	// selector string. Repeated additions bump the usage count.
	AddDiscoveredSelector(ctx context.Context, domain, selector, source string) error
}

// SourceCounts reports how many used catalog entries came from each source.
type SourceCounts struct {
	Custom     int `json:"custom"`
	Admin      int `json:"admin"`
	Discovered int `json:"discovered"`
	BruteForce int `json:"brute_force"`
}

var selectorRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidSelector reports whether s is a syntactically acceptable DKIM
// selector label.
func ValidSelector(s string) bool {
	return selectorRe.MatchString(s)
}

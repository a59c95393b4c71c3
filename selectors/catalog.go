package selectors

import (
	"sort"
	"strings"
)

// commonHead is the fixed head of the brute-force subset: the selectors
// most frequently seen in the wild, always tried first.
var commonHead = []string{"default", "google", "selector1", "selector2", "k1", "dkim1"}

// providerPatterns maps an MX hostname substring to the selectors that
// provider conventionally publishes. Ordered; all matching rows contribute.
var providerPatterns = []struct {
	match     string
	selectors []string
}{
	{"google", []string{"google", "google1", "google2", "google2025", "gapps"}},
	{"outlook", []string{"selector1", "selector2", "s1", "s2", "o365s1", "o365s2"}},
	{"microsoft", []string{"selector1", "selector2", "s1", "s2", "o365s1", "o365s2"}},
	{"yahoo", []string{"yahoo", "ya"}},
	{"zoho", []string{"zoho", "zohomail"}},
	{"mailgun", []string{"mailgun", "mg"}},
	{"sendgrid", []string{"sendgrid", "sg"}},
	{"dreamhost", []string{"dreamhost"}},
	{"mailchimp", []string{"mailchimp", "mc"}},
	{"hubspot", []string{"hubspot", "hs"}},
	{"salesforce", []string{"salesforce"}},
	{"amazon", []string{"amazonses", "ses"}},
}

// BuilderConfig configures catalog assembly limits.
type BuilderConfig struct {
	// MaxPerScan caps the final catalog length. Default: 15.
	MaxPerScan int

	// MaxBruteForce caps the brute-force subset contributed to the
	// catalog. Default: 10.
	MaxBruteForce int
}

// Builder assembles probe catalogs.
type Builder struct {
	config BuilderConfig
}

// NewBuilder creates a catalog builder.
func NewBuilder(config BuilderConfig) *Builder {
	if config.MaxPerScan == 0 {
		config.MaxPerScan = 15
	}
	if config.MaxBruteForce == 0 {
		config.MaxBruteForce = 10
	}
	return &Builder{config: config}
}

// BuildInput carries the per-domain source lists for one catalog build.
type BuildInput struct {
	// Custom is an optional caller-supplied selector, probed first.
	Custom string

	// Admin and Discovered come from the domain's profile store. Only
	// verified discovered selectors are used.
	Admin      []AdminSelector
	Discovered []DiscoveredSelector

	// MXHosts are the domain's exchange hostnames, used to pick
	// provider-specific brute-force candidates.
	MXHosts []string

	// Pool is the process-wide brute-force selector pool.
	Pool []string
}

// Catalog is the assembled, priority-ordered candidate list for one scan.
type Catalog struct {
	Candidates []Candidate

	// TotalAvailable is the deduplicated candidate count before the
	// per-scan cap was applied.
	TotalAvailable int

	// Counts tallies the used candidates by source.
	Counts SourceCounts
}

// Truncate keeps only the first n candidates and recomputes the
// per-source counts over the kept entries. TotalAvailable still
// reflects the pre-truncation pool.
func (c *Catalog) Truncate(n int) {
	if n < 0 || n >= len(c.Candidates) {
		return
	}
	c.Candidates = c.Candidates[:n]
	c.Counts = CountBySource(c.Candidates)
}

// Selectors returns the candidate selector strings in priority order.
func (c *Catalog) Selectors() []string {
	out := make([]string, len(c.Candidates))
	for i, cand := range c.Candidates {
		out[i] = cand.Selector
	}
	return out
}

// Build merges the input sources into a deduplicated, priority-ordered,
// length-capped catalog. The first occurrence by priority wins; a custom
// selector shadowing an admin entry keeps rank 1 but inherits the admin
// verification flag.
func (b *Builder) Build(in BuildInput) *Catalog {
	var list []Candidate

	if in.Custom != "" {
		list = append(list, Candidate{
			Selector: in.Custom,
			Source:   SourceCustom,
			Rank:     RankCustom,
		})
	}

	for _, a := range in.Admin {
		rank := RankAdminMedium
		switch a.Tier {
		case TierHigh:
			rank = RankAdminHigh
		case TierLow:
			rank = RankAdminLow
		}
		list = append(list, Candidate{
			Selector: a.Selector,
			Source:   SourceAdmin,
			Rank:     rank,
			Verified: a.Verified,
		})
	}

	for _, d := range in.Discovered {
		if !d.Verified {
			continue
		}
		list = append(list, Candidate{
			Selector: d.Selector,
			Source:   SourceDiscovered,
			Rank:     RankDiscovered,
			Verified: true,
		})
	}

	for _, s := range b.bruteForceSubset(in.MXHosts, in.Pool) {
		list = append(list, Candidate{
			Selector: s,
			Source:   SourceBruteForce,
			Rank:     RankBruteForce,
		})
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Rank < list[j].Rank
	})

	// Dedup keeping the first (highest-priority) occurrence. A shadowed
	// verified entry marks the survivor verified so the status is not lost.
	seen := make(map[string]int)
	var unique []Candidate
	for _, cand := range list {
		if i, ok := seen[cand.Selector]; ok {
			if cand.Verified {
				unique[i].Verified = true
			}
			continue
		}
		seen[cand.Selector] = len(unique)
		unique = append(unique, cand)
	}

	catalog := &Catalog{TotalAvailable: len(unique)}
	if len(unique) > b.config.MaxPerScan {
		unique = unique[:b.config.MaxPerScan]
	}
	catalog.Candidates = unique
	catalog.Counts = CountBySource(unique)

	return catalog
}

// CountBySource tallies candidates by provenance source.
func CountBySource(cands []Candidate) SourceCounts {
	var counts SourceCounts
	for _, cand := range cands {
		switch cand.Source {
		case SourceCustom:
			counts.Custom++
		case SourceAdmin:
			counts.Admin++
		case SourceDiscovered:
			counts.Discovered++
		case SourceBruteForce:
			counts.BruteForce++
		}
	}
	return counts
}

// bruteForceSubset picks the brute-force candidates worth probing: the
// common head, then provider-specific selectors inferred from MX hosts,
// then remaining pool entries, capped at MaxBruteForce.
func (b *Builder) bruteForceSubset(mxHosts, pool []string) []string {
	var subset []string
	seen := make(map[string]bool)

	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			subset = append(subset, s)
		}
	}

	for _, s := range commonHead {
		add(s)
	}
	for _, s := range providerSelectors(mxHosts) {
		add(s)
	}
	for _, s := range pool {
		add(s)
	}

	if len(subset) > b.config.MaxBruteForce {
		subset = subset[:b.config.MaxBruteForce]
	}
	return subset
}

// providerSelectors returns provider-specific selector candidates for the
// given MX exchange hostnames.
func providerSelectors(mxHosts []string) []string {
	var out []string
	for _, p := range providerPatterns {
		for _, host := range mxHosts {
			if strings.Contains(strings.ToLower(host), p.match) {
				out = append(out, p.selectors...)
				break
			}
		}
	}
	return out
}

package selectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPriorityOrder(t *testing.T) {
	b := NewBuilder(BuilderConfig{})

	catalog := b.Build(BuildInput{
		Admin: []AdminSelector{
			{Selector: "selector1", Tier: TierHigh, Verified: true},
			{Selector: "selector2", Tier: TierMedium},
		},
		Discovered: []DiscoveredSelector{
			{Selector: "google", UsageCount: 4, Verified: true},
		},
		MXHosts: []string{"aspmx.l.google.com"},
		Pool: []string{
			"default", "google", "selector1", "selector2", "k1", "dkim1",
			"s1", "s2", "mail", "smtp", "key1", "key2", "mg", "sg",
			"zoho", "yahoo", "ses", "mc", "hs", "pm",
		},
	})

	got := catalog.Selectors()
	require.GreaterOrEqual(t, len(got), 3)

	// Admin high, admin medium, then the verified discovered selector.
	assert.Equal(t, "selector1", got[0])
	assert.Equal(t, "selector2", got[1])
	assert.Equal(t, "google", got[2])

	// Everything after position 2 is brute force.
	for _, cand := range catalog.Candidates[3:] {
		assert.Equal(t, SourceBruteForce, cand.Source)
	}

	assert.LessOrEqual(t, len(got), 15)
	assert.Equal(t, 2, catalog.Counts.Admin)
	assert.Equal(t, 1, catalog.Counts.Discovered)
}

func TestBuildCustomShadowsAdmin(t *testing.T) {
	b := NewBuilder(BuilderConfig{})

	catalog := b.Build(BuildInput{
		Custom: "mail2024",
		Admin: []AdminSelector{
			{Selector: "mail2024", Tier: TierHigh, Verified: true},
		},
	})

	// The custom entry wins the dedup; the common brute-force head
	// still trails it even with an empty pool.
	require.NotEmpty(t, catalog.Candidates)
	cand := catalog.Candidates[0]
	assert.Equal(t, "mail2024", cand.Selector)
	assert.Equal(t, SourceCustom, cand.Source)
	assert.Equal(t, RankCustom, cand.Rank)
	assert.True(t, cand.Verified, "verification flag must survive dedup")
	assert.Equal(t, 1, catalog.Counts.Custom)
	assert.Equal(t, 0, catalog.Counts.Admin)

	require.Len(t, catalog.Candidates, 1+len(commonHead))
	for _, rest := range catalog.Candidates[1:] {
		assert.Equal(t, SourceBruteForce, rest.Source)
	}
}

func TestCatalogTruncate(t *testing.T) {
	b := NewBuilder(BuilderConfig{})

	catalog := b.Build(BuildInput{
		Custom: "mail2024",
		Admin: []AdminSelector{
			{Selector: "edge", Tier: TierHigh},
		},
	})
	require.Greater(t, len(catalog.Candidates), 3)
	total := catalog.TotalAvailable

	catalog.Truncate(3)

	assert.Len(t, catalog.Candidates, 3)
	assert.Equal(t, total, catalog.TotalAvailable)

	// Counts cover only the kept entries.
	counts := catalog.Counts
	assert.Equal(t, 1, counts.Custom)
	assert.Equal(t, 1, counts.Admin)
	assert.Equal(t, 1, counts.BruteForce)
	assert.Equal(t, 0, counts.Discovered)
	assert.Equal(t, len(catalog.Candidates),
		counts.Custom+counts.Admin+counts.Discovered+counts.BruteForce)

	// Truncating past the end is a no-op.
	catalog.Truncate(10)
	assert.Len(t, catalog.Candidates, 3)
}

func TestBuildDedupAndCap(t *testing.T) {
	b := NewBuilder(BuilderConfig{})

	pool := make([]string, 0, 40)
	for _, s := range []string{
		"default", "google", "selector1", "selector2", "k1", "dkim1",
		"s1", "s2", "mail", "email", "smtp", "mx", "key1", "key2",
		"mailgun", "mg", "sendgrid", "sg", "zoho", "yahoo",
	} {
		pool = append(pool, s)
	}

	catalog := b.Build(BuildInput{
		Custom: "default",
		Admin: []AdminSelector{
			{Selector: "google", Tier: TierHigh},
			{Selector: "k1", Tier: TierLow},
		},
		Discovered: []DiscoveredSelector{
			{Selector: "selector1", Verified: true},
			{Selector: "unverified", Verified: false},
		},
		Pool: pool,
	})

	seen := make(map[string]bool)
	for _, cand := range catalog.Candidates {
		assert.False(t, seen[cand.Selector], "duplicate selector %q", cand.Selector)
		seen[cand.Selector] = true
	}

	assert.NotContains(t, catalog.Selectors(), "unverified")
	assert.LessOrEqual(t, len(catalog.Candidates), 15)
	assert.GreaterOrEqual(t, catalog.TotalAvailable, len(catalog.Candidates))

	// Ranks never decrease along the catalog.
	for i := 1; i < len(catalog.Candidates); i++ {
		assert.LessOrEqual(t, catalog.Candidates[i-1].Rank, catalog.Candidates[i].Rank)
	}
}

func TestBruteForceSubset(t *testing.T) {
	b := NewBuilder(BuilderConfig{})

	subset := b.bruteForceSubset(
		[]string{"ASPMX.L.GOOGLE.COM."},
		[]string{"mail", "smtp", "key1", "key2", "mg", "sg", "zoho", "yahoo"},
	)

	require.LessOrEqual(t, len(subset), 10)

	// The common head always leads.
	assert.Equal(t, []string{"default", "google", "selector1", "selector2", "k1", "dkim1"}, subset[:6])

	// Google provider candidates fill in before generic pool entries.
	assert.Contains(t, subset, "google1")
}

func TestBruteForceSubsetNoProvider(t *testing.T) {
	b := NewBuilder(BuilderConfig{MaxBruteForce: 8})

	subset := b.bruteForceSubset(nil, []string{"mail", "smtp", "alpha"})
	assert.Equal(t, []string{"default", "google", "selector1", "selector2", "k1", "dkim1", "mail", "smtp"}, subset)
}

func TestProviderSelectors(t *testing.T) {
	tests := []struct {
		name    string
		hosts   []string
		contain []string
		absent  []string
	}{
		{
			name:    "microsoft 365",
			hosts:   []string{"example-com.mail.protection.outlook.com"},
			contain: []string{"selector1", "selector2", "o365s1"},
			absent:  []string{"google1"},
		},
		{
			name:    "zoho",
			hosts:   []string{"mx.zoho.com"},
			contain: []string{"zoho", "zohomail"},
		},
		{
			name:   "unknown provider",
			hosts:  []string{"mail.example.net"},
			absent: []string{"google1", "o365s1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := providerSelectors(tt.hosts)
			for _, s := range tt.contain {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestValidSelector(t *testing.T) {
	valid := []string{"default", "selector1", "k1", "o365s1", "my-selector", "my_selector", "S1"}
	for _, s := range valid {
		assert.True(t, ValidSelector(s), s)
	}
	invalid := []string{"", "sel ector", "sel.ector", "sel;ector", "sélecteur", "a/b"}
	for _, s := range invalid {
		assert.False(t, ValidSelector(s), s)
	}
}

package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synqronlabs/mailaudit/dmarc"
	"github.com/synqronlabs/mailaudit/rules"
	"github.com/synqronlabs/mailaudit/score"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := rules.LoadDefaults(nil)
	require.NoError(t, err)
	return NewEngine(store, nil)
}

func zeroScores() map[string]score.ComponentScore {
	return map[string]score.ComponentScore{
		"mx":    {Component: "mx"},
		"spf":   {Component: "spf"},
		"dmarc": {Component: "dmarc"},
		"dkim":  {Component: "dkim"},
	}
}

func groups(points map[string]float64) map[string]score.GroupScore {
	out := make(map[string]score.GroupScore, len(points))
	for g, p := range points {
		out[g] = score.GroupScore{Points: p}
	}
	return out
}

func TestEmptyDomainRecommendations(t *testing.T) {
	e := newEngine(t)

	recs := e.Generate(Input{Scores: zeroScores(), TotalScore: 0})
	require.NotEmpty(t, recs)

	// Criticals lead, and the MX gap is the first of them.
	assert.Equal(t, rules.TierCritical, recs[0].Tier)
	assert.Equal(t, "Add MX Records", recs[0].Title)

	var titles []string
	for _, r := range recs {
		titles = append(titles, r.Title)
	}
	assert.Contains(t, titles, "Add an SPF Record")
	assert.Contains(t, titles, "Add a DMARC Record")
	assert.Contains(t, titles, "Set Up DKIM Signing")
	assert.Contains(t, titles, "Deploy Core Email Authentication")
	assert.Contains(t, titles, "Improve Overall Email Security")

	// Tier order never decreases down the list.
	for i := 1; i < len(recs); i++ {
		assert.LessOrEqual(t, recs[i-1].Tier.Weight(), recs[i].Tier.Weight())
	}
}

func TestCrossComponentInterpolation(t *testing.T) {
	e := newEngine(t)

	scores := zeroScores()
	scores["mx"] = score.ComponentScore{Component: "mx", Total: 25, Details: groups(map[string]float64{
		"redundancy": 3, "provider": 2,
	})}
	scores["spf"] = score.ComponentScore{Component: "spf", Total: 25, Details: groups(map[string]float64{
		"policy": 2, "mechanisms": 5,
	})}

	recs := e.Generate(Input{Scores: scores, TotalScore: 50})

	var cross *Recommendation
	for i := range recs {
		if recs[i].Condition == "missing_critical_components >= 2" {
			cross = &recs[i]
		}
	}
	require.NotNil(t, cross)
	assert.Contains(t, cross.Description, "DKIM, DMARC records")
	assert.NotContains(t, cross.Description, "critical email security components")
}

func TestComponentScopedBeforeCross(t *testing.T) {
	e := newEngine(t)

	// DKIM missing (important) and total below 60 (important): the
	// component-scoped entry must come first within the tier.
	scores := zeroScores()
	scores["mx"] = score.ComponentScore{Component: "mx", Total: 25, Details: groups(map[string]float64{
		"redundancy": 3, "provider": 2,
	})}
	scores["spf"] = score.ComponentScore{Component: "spf", Total: 25, Details: groups(map[string]float64{
		"policy": 2, "mechanisms": 5,
	})}
	scores["dmarc"] = score.ComponentScore{Component: "dmarc", Total: 30, Details: groups(map[string]float64{})}

	recs := e.Generate(Input{
		Scores:     scores,
		DMARC:      dmarc.ParseRecord("v=DMARC1; p=reject; rua=mailto:d@example.com"),
		TotalScore: 55,
	})

	var dkimIdx, crossIdx = -1, -1
	for i, r := range recs {
		switch r.Condition {
		case "dkim_records_missing":
			dkimIdx = i
		case "total_score < 60":
			crossIdx = i
		}
	}
	require.GreaterOrEqual(t, dkimIdx, 0)
	require.GreaterOrEqual(t, crossIdx, 0)
	assert.Less(t, dkimIdx, crossIdx)
}

func TestDMARCPolicyConditions(t *testing.T) {
	e := newEngine(t)

	base := func(facts *dmarc.Facts) []Recommendation {
		scores := zeroScores()
		scores["mx"] = score.ComponentScore{Component: "mx", Total: 25, Details: groups(map[string]float64{"redundancy": 3, "provider": 2})}
		scores["spf"] = score.ComponentScore{Component: "spf", Total: 25, Details: groups(map[string]float64{"policy": 2, "mechanisms": 5})}
		scores["dmarc"] = score.ComponentScore{Component: "dmarc", Total: 30, Details: groups(nil)}
		scores["dkim"] = score.ComponentScore{Component: "dkim", Total: 20, Details: groups(map[string]float64{"selectors": 2})}
		return e.Generate(Input{Scores: scores, DMARC: facts, TotalScore: 100})
	}

	conds := func(recs []Recommendation) []string {
		var out []string
		for _, r := range recs {
			out = append(out, r.Condition)
		}
		return out
	}

	none := base(dmarc.ParseRecord("v=DMARC1; p=none"))
	assert.Contains(t, conds(none), "dmarc_policy == 'none'")
	assert.Contains(t, conds(none), "dmarc_rua_missing")

	quarantine := base(dmarc.ParseRecord("v=DMARC1; p=quarantine; pct=50; rua=mailto:d@example.com"))
	assert.Contains(t, conds(quarantine), "dmarc_policy == 'quarantine'")
	assert.Contains(t, conds(quarantine), "dmarc_percentage != 100")
	assert.NotContains(t, conds(quarantine), "dmarc_rua_missing")

	clean := base(dmarc.ParseRecord("v=DMARC1; p=reject; rua=mailto:d@example.com"))
	for _, c := range conds(clean) {
		assert.NotContains(t, c, "dmarc", "unexpected DMARC recommendation %s", c)
	}
}

func TestSingleSelectorProviderSuppression(t *testing.T) {
	e := newEngine(t)

	scores := zeroScores()
	scores["mx"] = score.ComponentScore{Component: "mx", Total: 25, Details: groups(map[string]float64{"redundancy": 3, "provider": 2})}
	scores["spf"] = score.ComponentScore{Component: "spf", Total: 25, Details: groups(map[string]float64{"policy": 2, "mechanisms": 5})}
	scores["dmarc"] = score.ComponentScore{Component: "dmarc", Total: 30, Details: groups(nil)}
	scores["dkim"] = score.ComponentScore{Component: "dkim", Total: 20, Details: groups(map[string]float64{"selectors": 0})}

	in := Input{
		Scores:     scores,
		DMARC:      dmarc.ParseRecord("v=DMARC1; p=reject; rua=mailto:d@example.com"),
		TotalScore: 100,
	}

	withAdvice := e.Generate(in)
	var found bool
	for _, r := range withAdvice {
		if r.Condition == "dkim_selector_score < 2" {
			found = true
		}
	}
	assert.True(t, found)

	in.SingleSelectorProvider = true
	for _, r := range e.Generate(in) {
		assert.NotEqual(t, "dkim_selector_score < 2", r.Condition)
	}
}

func TestWeakKeyRecommendation(t *testing.T) {
	e := newEngine(t)

	scores := zeroScores()
	scores["mx"] = score.ComponentScore{Component: "mx", Total: 25, Details: groups(map[string]float64{"redundancy": 3, "provider": 2})}
	scores["spf"] = score.ComponentScore{Component: "spf", Total: 25, Details: groups(map[string]float64{"policy": 2, "mechanisms": 5})}
	scores["dmarc"] = score.ComponentScore{Component: "dmarc", Total: 30, Details: groups(nil)}
	scores["dkim"] = score.ComponentScore{Component: "dkim", Total: 20, Details: groups(map[string]float64{"selectors": 2})}

	recs := e.Generate(Input{
		Scores:      scores,
		DMARC:       dmarc.ParseRecord("v=DMARC1; p=reject; rua=mailto:d@example.com"),
		DKIMKeyWeak: true,
		TotalScore:  100,
	})

	var weak *Recommendation
	for i := range recs {
		if recs[i].Condition == "dkim_key_weak" {
			weak = &recs[i]
		}
	}
	require.NotNil(t, weak)
	assert.Equal(t, rules.TierImportant, weak.Tier)
}

func TestStableOrderAcrossRuns(t *testing.T) {
	e := newEngine(t)
	in := Input{Scores: zeroScores(), TotalScore: 0}

	first := e.Generate(in)
	second := e.Generate(in)
	assert.Equal(t, first, second)
}

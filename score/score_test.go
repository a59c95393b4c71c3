package score

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synqronlabs/mailaudit/dkim"
	"github.com/synqronlabs/mailaudit/dmarc"
	"github.com/synqronlabs/mailaudit/mx"
	"github.com/synqronlabs/mailaudit/rules"
	"github.com/synqronlabs/mailaudit/spf"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := rules.LoadDefaults(nil)
	require.NoError(t, err)
	return NewEngine(store, nil)
}

func googleMX() *mx.Facts {
	return mx.Analyze([]*net.MX{
		{Host: "aspmx.l.google.com.", Pref: 1},
		{Host: "alt1.aspmx.l.google.com.", Pref: 5},
		{Host: "alt2.aspmx.l.google.com.", Pref: 5},
	})
}

func TestScoreFullyConfiguredDomain(t *testing.T) {
	e := newEngine(t)

	mxScore := e.ScoreMX(googleMX())
	assert.Equal(t, 25.0, mxScore.Base)
	assert.Equal(t, 3.0, mxScore.Bonus)
	assert.Equal(t, 25.0, mxScore.Total, "component cap binds")

	spfScore := e.ScoreSPF(spf.ParseRecord("v=spf1 ip4:192.0.2.0/24 a mx include:_spf.google.com -all"))
	assert.Equal(t, 25.0, spfScore.Base)
	assert.Equal(t, 2.0, spfScore.Bonus)
	assert.Equal(t, 25.0, spfScore.Total)

	dmarcScore := e.ScoreDMARC(dmarc.ParseRecord("v=DMARC1; p=reject; pct=100; rua=mailto:d@example.com; ruf=mailto:f@example.com"))
	assert.Equal(t, 30.0, dmarcScore.Base)
	assert.Equal(t, 4.5, dmarcScore.Bonus)
	assert.Equal(t, 30.0, dmarcScore.Total, "bonus beyond the cap must not leak into the total")

	dkimScore := e.ScoreDKIM(DKIMInput{SelectorsFound: 2, Strength: dkim.StrengthStrong})
	assert.Equal(t, 20.0, dkimScore.Base)
	assert.Equal(t, 3.0, dkimScore.Bonus)
	assert.Equal(t, 20.0, dkimScore.Total)

	total := e.Total(map[string]ComponentScore{
		"mx": mxScore, "spf": spfScore, "dmarc": dmarcScore, "dkim": dkimScore,
	})
	assert.Equal(t, 100.0, total.Score)
	assert.Equal(t, "A", total.Grade)
	assert.Equal(t, "Excellent", total.Status)
	assert.Equal(t, 10.0, total.BonusPoints, "bonus cap binds")
}

func TestScoreEmptyDomain(t *testing.T) {
	e := newEngine(t)

	mxScore := e.ScoreMX(mx.Analyze(nil))
	spfScore := e.ScoreSPF(nil)
	dmarcScore := e.ScoreDMARC(nil)
	dkimScore := e.ScoreDKIM(DKIMInput{})

	for _, c := range []ComponentScore{mxScore, spfScore, dmarcScore, dkimScore} {
		assert.Zero(t, c.Base, c.Component)
		assert.Zero(t, c.Bonus, c.Component)
		assert.Zero(t, c.Total, c.Component)
	}

	total := e.Total(map[string]ComponentScore{
		"mx": mxScore, "spf": spfScore, "dmarc": dmarcScore, "dkim": dkimScore,
	})
	assert.Equal(t, 0.0, total.Score)
	assert.Equal(t, "F", total.Grade)
	assert.Equal(t, "Very Poor", total.Status)
}

func TestScoreMXRedundancyTiers(t *testing.T) {
	e := newEngine(t)

	one := e.ScoreMX(mx.Analyze([]*net.MX{{Host: "mail.example.net.", Pref: 10}}))
	assert.Equal(t, 0.0, one.Details["redundancy"].Points)

	two := e.ScoreMX(mx.Analyze([]*net.MX{
		{Host: "mail.example.net.", Pref: 10},
		{Host: "mail2.example.net.", Pref: 20},
	}))
	assert.Equal(t, 2.0, two.Details["redundancy"].Points)

	assert.Equal(t, 3.0, e.ScoreMX(googleMX()).Details["redundancy"].Points)
}

func TestScoreSPFPolicyBonus(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		record string
		bonus  float64
	}{
		{"v=spf1 include:_spf.example.com -all", 2},
		{"v=spf1 include:_spf.example.com ~all", 1},
		{"v=spf1 include:_spf.example.com ?all", 0.5},
		{"v=spf1 include:_spf.example.com +all", 0},
	}
	for _, tt := range tests {
		got := e.ScoreSPF(spf.ParseRecord(tt.record))
		assert.Equal(t, tt.bonus, got.Bonus, tt.record)
	}
}

func TestScoreSPFRedirectLosesSecurityPoints(t *testing.T) {
	e := newEngine(t)

	with := e.ScoreSPF(spf.ParseRecord("v=spf1 redirect=_spf.example.com"))
	without := e.ScoreSPF(spf.ParseRecord("v=spf1 include:_spf.example.com -all"))
	assert.Equal(t, 0.0, with.Details["security"].Points)
	assert.Equal(t, 2.0, without.Details["security"].Points)
}

func TestScoreDMARCPartialCoverage(t *testing.T) {
	e := newEngine(t)

	half := e.ScoreDMARC(dmarc.ParseRecord("v=DMARC1; p=quarantine; pct=50"))
	assert.Equal(t, 0.5, half.Details["coverage"].Points)
	assert.Equal(t, 1.0, half.Details["policy"].Points)

	low := e.ScoreDMARC(dmarc.ParseRecord("v=DMARC1; p=none; pct=10"))
	assert.Equal(t, 0.0, low.Details["coverage"].Points)
	assert.Equal(t, 0.0, low.Details["policy"].Points)

	// Absent pct defaults to full coverage.
	full := e.ScoreDMARC(dmarc.ParseRecord("v=DMARC1; p=reject"))
	assert.Equal(t, 1.0, full.Details["coverage"].Points)
}

func TestScoreDKIMSingleSelectorProvider(t *testing.T) {
	e := newEngine(t)

	// Google Workspace publishes exactly one selector; finding several
	// records there says nothing about rotation hygiene.
	suppressed := e.ScoreDKIM(DKIMInput{
		SelectorsFound:         2,
		Strength:               dkim.StrengthStrong,
		SingleSelectorProvider: true,
	})
	assert.Equal(t, 0.0, suppressed.Details["selectors"].Points)

	normal := e.ScoreDKIM(DKIMInput{SelectorsFound: 2, Strength: dkim.StrengthStrong})
	assert.Equal(t, 2.0, normal.Details["selectors"].Points)
}

func TestScoreDKIMWeakKey(t *testing.T) {
	e := newEngine(t)

	weak := e.ScoreDKIM(DKIMInput{SelectorsFound: 1, Strength: dkim.StrengthWeak})
	assert.Equal(t, 0.0, weak.Details["algorithm"].Points)
	assert.Equal(t, 20.0, weak.Total)
}

func TestScoreIdempotent(t *testing.T) {
	e := newEngine(t)
	facts := spf.ParseRecord("v=spf1 include:_spf.google.com ~all")

	first := e.ScoreSPF(facts)
	second := e.ScoreSPF(facts)
	assert.Equal(t, first, second)
}

func TestTotalNeverExceedsBounds(t *testing.T) {
	e := newEngine(t)

	// Inflated inputs still respect the total and bonus ceilings.
	inflated := map[string]ComponentScore{
		"mx":    {Component: "mx", Base: 25, Bonus: 9, Total: 25},
		"spf":   {Component: "spf", Base: 25, Bonus: 9, Total: 25},
		"dmarc": {Component: "dmarc", Base: 30, Bonus: 9, Total: 30},
		"dkim":  {Component: "dkim", Base: 20, Bonus: 9, Total: 20},
	}
	total := e.Total(inflated)
	assert.LessOrEqual(t, total.Score, 100.0)
	assert.LessOrEqual(t, total.BonusPoints, 10.0)
}

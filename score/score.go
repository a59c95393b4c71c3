// Package score converts parsed record facts into the rule-weighted
// point breakdown: one capped score per component plus the capped total
// with grade and status. All scoring is pure computation; the weights
// come from the rules store.
package score

import (
	"fmt"
	"log/slog"

	"github.com/synqronlabs/mailaudit/dkim"
	"github.com/synqronlabs/mailaudit/dmarc"
	"github.com/synqronlabs/mailaudit/mx"
	"github.com/synqronlabs/mailaudit/rules"
	"github.com/synqronlabs/mailaudit/spf"
)

// GroupScore is the points awarded for one rule group, with a short
// human-readable description of what was observed.
type GroupScore struct {
	Points      float64 `json:"points"`
	Description string  `json:"description"`
}

// ComponentScore is the scoring breakdown for one component.
type ComponentScore struct {
	Component string  `json:"component"`
	Base      float64 `json:"score"`
	Bonus     float64 `json:"bonus"`

	// Total is Base+Bonus capped at the component ceiling.
	Total float64 `json:"total"`

	Details map[string]GroupScore `json:"details"`
}

// TotalScore aggregates the four component scores.
type TotalScore struct {
	Score       float64 `json:"score"`
	Grade       string  `json:"grade"`
	Status      string  `json:"status"`
	BaseScore   float64 `json:"base_score"`
	BonusPoints float64 `json:"bonus_points"`

	Components map[string]ComponentScore `json:"scoring_details"`
}

// DKIMInput carries the DKIM evidence the scorer needs: how many
// selectors resolved and what the strongest published key looks like.
type DKIMInput struct {
	SelectorsFound int
	Strength       string

	// SingleSelectorProvider suppresses the multi-selector bonus for
	// providers that only ever publish one selector.
	SingleSelectorProvider bool
}

// maxBonus caps the bonus points counted toward the reported total.
const maxBonus = 10

// maxTotal caps the final score.
const maxTotal = 100

// Engine scores components against a rule store.
type Engine struct {
	rules  *rules.Store
	logger *slog.Logger
}

// NewEngine creates a scoring engine.
func NewEngine(store *rules.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{rules: store, logger: logger}
}

func (e *Engine) finish(component string, base, bonus float64, details map[string]GroupScore) ComponentScore {
	total := base + bonus
	if ceiling := e.rules.MaxScore(component); total > ceiling {
		total = ceiling
	}
	return ComponentScore{
		Component: component,
		Base:      base,
		Bonus:     bonus,
		Total:     total,
		Details:   details,
	}
}

// ScoreMX scores the MX component. A nil or empty analysis scores zero.
func (e *Engine) ScoreMX(facts *mx.Facts) ComponentScore {
	details := make(map[string]GroupScore)
	if facts == nil || facts.Count == 0 {
		return e.finish("mx", 0, 0, details)
	}

	var base, bonus float64

	p := e.rules.GetRulePoints("mx", "base", "has_mx_records")
	base += p
	details["base"] = GroupScore{Points: p, Description: "Basic MX record presence"}

	switch {
	case facts.Count >= 3:
		p = e.rules.GetRulePoints("mx", "redundancy", "mx_count >= 3")
	case facts.Count == 2:
		p = e.rules.GetRulePoints("mx", "redundancy", "mx_count == 2")
	default:
		p = e.rules.GetRulePoints("mx", "redundancy", "mx_count == 1")
	}
	bonus += p
	details["redundancy"] = GroupScore{
		Points:      p,
		Description: fmt.Sprintf("%d MX records", facts.Count),
	}

	switch {
	case facts.HasTrustedProvider:
		p = e.rules.GetRulePoints("mx", "provider", "has_trusted_provider")
	case facts.Count > 0:
		p = e.rules.GetRulePoints("mx", "provider", "has_provider")
	}
	base += p
	details["provider"] = GroupScore{Points: p, Description: "Provider quality"}

	p = 0
	if facts.SecureConfiguration {
		p = e.rules.GetRulePoints("mx", "security", "secure_configuration")
	}
	base += p
	details["security"] = GroupScore{Points: p, Description: "Security configuration"}

	return e.finish("mx", base, bonus, details)
}

// ScoreSPF scores the SPF component from the parsed record facts.
// A nil facts value means no SPF record was found.
func (e *Engine) ScoreSPF(facts *spf.Facts) ComponentScore {
	details := make(map[string]GroupScore)
	if facts == nil || !facts.Valid {
		return e.finish("spf", 0, 0, details)
	}

	var base, bonus float64

	p := e.rules.GetRulePoints("spf", "base", "has_spf_records")
	base += p
	details["base"] = GroupScore{Points: p, Description: "Basic SPF record presence"}

	var policyPoints float64
	switch facts.Policy {
	case spf.PolicyReject:
		policyPoints = e.rules.GetRulePoints("spf", "policy", "spf_policy == 'reject'")
	case spf.PolicySoftfail:
		policyPoints = e.rules.GetRulePoints("spf", "policy", "spf_policy == 'softfail'")
	case spf.PolicyNeutral:
		policyPoints = e.rules.GetRulePoints("spf", "policy", "spf_policy == 'neutral'")
	case spf.PolicyPermissive:
		policyPoints = e.rules.GetRulePoints("spf", "policy", "spf_policy == 'permissive'")
	}
	bonus += policyPoints
	details["policy"] = GroupScore{
		Points:      policyPoints,
		Description: fmt.Sprintf("SPF policy: %s", facts.Policy),
	}

	var mechPoints float64
	if facts.HasMechanism(spf.MechanismInclude) {
		mechPoints += e.rules.GetRulePoints("spf", "mechanisms", "has_include_mechanisms")
	}
	if facts.HasMechanism(spf.MechanismDirectIP) {
		mechPoints += e.rules.GetRulePoints("spf", "mechanisms", "has_direct_ip")
	}
	if facts.HasMechanism(spf.MechanismDomainA) || facts.HasMechanism(spf.MechanismDomainMX) {
		mechPoints += e.rules.GetRulePoints("spf", "mechanisms", "has_domain_records")
	}
	base += mechPoints
	details["mechanisms"] = GroupScore{Points: mechPoints, Description: "Mechanism coverage"}

	p = 0
	if !facts.HasMechanism(spf.MechanismRedirect) {
		p = e.rules.GetRulePoints("spf", "security", "no_redirect_mechanisms")
	}
	base += p
	details["security"] = GroupScore{Points: p, Description: "No redirect mechanisms"}

	return e.finish("spf", base, bonus, details)
}

// ScoreDMARC scores the DMARC component from the parsed record facts.
// A nil facts value means no DMARC record was found.
func (e *Engine) ScoreDMARC(facts *dmarc.Facts) ComponentScore {
	details := make(map[string]GroupScore)
	if facts == nil || !facts.Valid {
		return e.finish("dmarc", 0, 0, details)
	}

	var base, bonus float64

	p := e.rules.GetRulePoints("dmarc", "base", "has_dmarc_records")
	base += p
	details["base"] = GroupScore{Points: p, Description: "Basic DMARC record presence"}

	var policyPoints float64
	switch facts.Policy {
	case dmarc.PolicyReject:
		policyPoints = e.rules.GetRulePoints("dmarc", "policy", "dmarc_policy == 'reject'")
	case dmarc.PolicyQuarantine:
		policyPoints = e.rules.GetRulePoints("dmarc", "policy", "dmarc_policy == 'quarantine'")
	case dmarc.PolicyNone:
		policyPoints = e.rules.GetRulePoints("dmarc", "policy", "dmarc_policy == 'none'")
	}
	bonus += policyPoints
	details["policy"] = GroupScore{
		Points:      policyPoints,
		Description: fmt.Sprintf("DMARC policy: %s", facts.Policy),
	}

	pct := facts.EffectivePercentage()
	var coverage float64
	switch {
	case pct == 100:
		coverage = e.rules.GetRulePoints("dmarc", "coverage", "dmarc_percentage == 100")
	case pct >= 50:
		coverage = e.rules.GetRulePoints("dmarc", "coverage", "dmarc_percentage >= 50")
	}
	bonus += coverage
	details["coverage"] = GroupScore{
		Points:      coverage,
		Description: fmt.Sprintf("Policy applies to %d%% of mail", pct),
	}

	var reporting float64
	if len(facts.RUA) > 0 {
		reporting += e.rules.GetRulePoints("dmarc", "reporting", "dmarc_rua_present")
	}
	if len(facts.RUF) > 0 {
		reporting += e.rules.GetRulePoints("dmarc", "reporting", "dmarc_ruf_present")
	}
	bonus += reporting
	details["reporting"] = GroupScore{Points: reporting, Description: "Reporting addresses"}

	return e.finish("dmarc", base, bonus, details)
}

// ScoreDKIM scores the DKIM component from the probe evidence.
func (e *Engine) ScoreDKIM(in DKIMInput) ComponentScore {
	details := make(map[string]GroupScore)
	if in.SelectorsFound == 0 {
		return e.finish("dkim", 0, 0, details)
	}

	var base, bonus float64

	p := e.rules.GetRulePoints("dkim", "base", "has_dkim_records")
	base += p
	details["base"] = GroupScore{Points: p, Description: "Basic DKIM record presence"}

	var selectorPoints float64
	switch {
	case in.SelectorsFound > 1 && !in.SingleSelectorProvider:
		selectorPoints = e.rules.GetRulePoints("dkim", "selectors", "dkim_selector_count > 1")
	default:
		selectorPoints = e.rules.GetRulePoints("dkim", "selectors", "dkim_selector_count == 1")
	}
	bonus += selectorPoints
	details["selectors"] = GroupScore{
		Points:      selectorPoints,
		Description: fmt.Sprintf("%d DKIM selectors", in.SelectorsFound),
	}

	var keyPoints float64
	if in.Strength == dkim.StrengthStrong {
		keyPoints = e.rules.GetRulePoints("dkim", "algorithm", "strong_algorithm")
	} else {
		keyPoints = e.rules.GetRulePoints("dkim", "algorithm", "weak_algorithm")
	}
	bonus += keyPoints
	details["algorithm"] = GroupScore{
		Points:      keyPoints,
		Description: fmt.Sprintf("DKIM key strength: %s", in.Strength),
	}

	return e.finish("dkim", base, bonus, details)
}

// Total aggregates component scores into the final capped score with
// its grade band.
func (e *Engine) Total(components map[string]ComponentScore) TotalScore {
	var sum, bonus, base float64
	for _, c := range components {
		sum += c.Total
		bonus += c.Bonus
		base += c.Base
	}

	if bonus > maxBonus {
		bonus = maxBonus
	}
	if sum > maxTotal {
		sum = maxTotal
	}

	band := e.rules.Grade(sum)
	return TotalScore{
		Score:       sum,
		Grade:       band.Grade,
		Status:      band.Description,
		BaseScore:   base,
		BonusPoints: bonus,
		Components:  components,
	}
}

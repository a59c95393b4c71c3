// Package recommend derives ordered remediation recommendations from a
// scoring breakdown. Each threshold condition maps to one rule-store
// template; a condition whose template is missing is logged and skipped
// rather than failing the scan.
package recommend

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/synqronlabs/mailaudit/dmarc"
	"github.com/synqronlabs/mailaudit/rules"
	"github.com/synqronlabs/mailaudit/score"
)

// Recommendation is one selected remediation entry.
type Recommendation struct {
	Component    string     `json:"component"`
	Condition    string     `json:"condition_id"`
	Tier         rules.Tier `json:"type"`
	HighPriority bool       `json:"high_priority"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Impact       string     `json:"impact"`
	Effort       string     `json:"effort"`
	Action       string     `json:"action"`
	Example      string     `json:"example,omitempty"`
}

// Input carries the evidence the engine selects from: the per-component
// scoring breakdown plus the parsed facts the thresholds reference.
type Input struct {
	Scores map[string]score.ComponentScore

	// DMARC facts drive the policy and reporting conditions; nil means
	// no record was found.
	DMARC *dmarc.Facts

	// DKIMKeyWeak is set when a published key fell below 2048 bits.
	DKIMKeyWeak bool

	// SingleSelectorProvider suppresses the extra-selector advice for
	// providers that only publish one selector.
	SingleSelectorProvider bool

	// TotalScore is the final capped score.
	TotalScore float64
}

// Engine selects and orders recommendations against a rule store.
type Engine struct {
	rules  *rules.Store
	logger *slog.Logger
}

// NewEngine creates a recommendation engine.
func NewEngine(store *rules.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{rules: store, logger: logger}
}

// Generate selects the matching recommendations and orders them by tier
// (critical first), then by the template's high-priority flag, then
// component-scoped before cross-component. Ties keep generation order.
func (e *Engine) Generate(in Input) []Recommendation {
	var out []Recommendation

	out = append(out, e.mxRecommendations(in)...)
	out = append(out, e.spfRecommendations(in)...)
	out = append(out, e.dmarcRecommendations(in)...)
	out = append(out, e.dkimRecommendations(in)...)
	out = append(out, e.crossRecommendations(in)...)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Tier.Weight() != b.Tier.Weight() {
			return a.Tier.Weight() < b.Tier.Weight()
		}
		if a.HighPriority != b.HighPriority {
			return a.HighPriority
		}
		aCross := a.Component == "cross_component"
		bCross := b.Component == "cross_component"
		return !aCross && bCross
	})
	return out
}

// append the template for (component, condition) if one exists.
func (e *Engine) add(out []Recommendation, component, condition string) []Recommendation {
	tmpl, ok := e.rules.RecommendationTemplate(component, condition)
	if !ok {
		e.logger.Warn("no recommendation template",
			"component", component, "condition", condition)
		return out
	}
	return append(out, fromTemplate(tmpl))
}

func fromTemplate(t rules.Template) Recommendation {
	return Recommendation{
		Component:    t.Component,
		Condition:    t.Condition,
		Tier:         t.Tier,
		HighPriority: t.HighPriority,
		Title:        t.Title,
		Description:  t.Description,
		Impact:       t.Impact,
		Effort:       t.Effort,
		Action:       t.Action,
		Example:      t.Example,
	}
}

func groupPoints(c score.ComponentScore, group string) float64 {
	return c.Details[group].Points
}

func (e *Engine) mxRecommendations(in Input) []Recommendation {
	var out []Recommendation
	c := in.Scores["mx"]

	if c.Total == 0 {
		return e.add(out, "mx", "mx_records_missing")
	}
	if groupPoints(c, "redundancy") < 3 {
		out = e.add(out, "mx", "mx_redundancy_score < 3")
	}
	if groupPoints(c, "provider") < 2 {
		out = e.add(out, "mx", "mx_provider_score < 2")
	}
	return out
}

func (e *Engine) spfRecommendations(in Input) []Recommendation {
	var out []Recommendation
	c := in.Scores["spf"]

	if c.Total == 0 {
		return e.add(out, "spf", "spf_records_missing")
	}
	if groupPoints(c, "policy") < 2 {
		out = e.add(out, "spf", "spf_policy_score < 2")
	}
	if groupPoints(c, "mechanisms") < 3 {
		out = e.add(out, "spf", "spf_mechanism_score < 3")
	}
	return out
}

func (e *Engine) dmarcRecommendations(in Input) []Recommendation {
	var out []Recommendation
	c := in.Scores["dmarc"]

	if c.Total == 0 || in.DMARC == nil {
		return e.add(out, "dmarc", "dmarc_records_missing")
	}

	switch in.DMARC.Policy {
	case dmarc.PolicyNone:
		out = e.add(out, "dmarc", "dmarc_policy == 'none'")
	case dmarc.PolicyQuarantine:
		out = e.add(out, "dmarc", "dmarc_policy == 'quarantine'")
	}
	if in.DMARC.EffectivePercentage() != 100 {
		out = e.add(out, "dmarc", "dmarc_percentage != 100")
	}
	if len(in.DMARC.RUA) == 0 {
		out = e.add(out, "dmarc", "dmarc_rua_missing")
	}
	return out
}

func (e *Engine) dkimRecommendations(in Input) []Recommendation {
	var out []Recommendation
	c := in.Scores["dkim"]

	if c.Total == 0 {
		return e.add(out, "dkim", "dkim_records_missing")
	}
	if groupPoints(c, "selectors") < 2 && !in.SingleSelectorProvider {
		out = e.add(out, "dkim", "dkim_selector_score < 2")
	}
	if in.DKIMKeyWeak {
		out = e.add(out, "dkim", "dkim_key_weak")
	}
	return out
}

func (e *Engine) crossRecommendations(in Input) []Recommendation {
	var out []Recommendation

	var missing []string
	for _, name := range []string{"SPF", "DKIM", "DMARC"} {
		if in.Scores[strings.ToLower(name)].Total == 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) >= 2 {
		before := len(out)
		out = e.add(out, "cross_component", "missing_critical_components >= 2")
		if len(out) > before {
			rec := &out[len(out)-1]
			rec.Description = strings.Replace(rec.Description,
				"critical email security components",
				strings.Join(missing, ", ")+" records", 1)
		}
	}

	if in.TotalScore < 60 {
		out = e.add(out, "cross_component", "total_score < 60")
	}
	return out
}

// Package rules loads and serves the declarative scoring configuration:
// per-component rule weights, grade bands, and recommendation templates.
// The data ships embedded; deployments may override it with a YAML file.
// A store that fails validation must not be used: scoring without rules
// produces garbage, so callers treat load failure as fatal at startup.
package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRules indicates a component has no scoring rules at all.
	ErrNoRules = errors.New("rules: component has no rules")

	// ErrDuplicateRule indicates two rules share (component, group, condition).
	ErrDuplicateRule = errors.New("rules: duplicate rule")

	// ErrNoGrades indicates the grade band table is empty.
	ErrNoGrades = errors.New("rules: no grade bands")
)

// Kind distinguishes base rules, which build a component's core score,
// from bonus rules, which add on top and count toward the bonus cap.
type Kind string

const (
	KindBase  Kind = "base"
	KindBonus Kind = "bonus"
)

// Rule is one weighted scoring condition.
type Rule struct {
	Component string  `yaml:"component"`
	Group     string  `yaml:"group"`
	Condition string  `yaml:"condition"`
	Points    float64 `yaml:"points"`
	Kind      Kind    `yaml:"kind"`
}

// GradeBand maps a minimum score to a letter grade. Bands are kept in
// descending MinScore order; the first band whose threshold the score
// meets applies, so ties resolve upward.
type GradeBand struct {
	MinScore    float64 `yaml:"min_score"`
	Grade       string  `yaml:"grade"`
	Description string  `yaml:"description"`
	Color       string  `yaml:"color"`
}

// Tier orders recommendations: critical before important before info.
type Tier string

const (
	TierCritical  Tier = "critical"
	TierImportant Tier = "important"
	TierInfo      Tier = "info"
)

// Weight returns the sort weight for a tier; unknown tiers sort last.
func (t Tier) Weight() int {
	switch t {
	case TierCritical:
		return 1
	case TierImportant:
		return 2
	case TierInfo:
		return 3
	}
	return 4
}

// Template is a recommendation template keyed by (component, condition).
type Template struct {
	Component    string `yaml:"component"`
	Condition    string `yaml:"condition"`
	Tier         Tier   `yaml:"tier"`
	HighPriority bool   `yaml:"high_priority"`
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	Impact       string `yaml:"impact"`
	Effort       string `yaml:"effort"`
	Action       string `yaml:"action"`
	Example      string `yaml:"example,omitempty"`
}

// componentCaps holds the fixed per-component score ceilings.
type componentCaps struct {
	MX    float64 `yaml:"mx"`
	SPF   float64 `yaml:"spf"`
	DMARC float64 `yaml:"dmarc"`
	DKIM  float64 `yaml:"dkim"`
}

// document is the on-disk YAML layout.
type document struct {
	Version         string        `yaml:"version"`
	Caps            componentCaps `yaml:"caps"`
	Rules           []Rule        `yaml:"rules"`
	Grades          []GradeBand   `yaml:"grades"`
	Recommendations []Template    `yaml:"recommendations"`
}

func (d *document) validate() error {
	if len(d.Grades) == 0 {
		return ErrNoGrades
	}

	perComponent := make(map[string]int)
	seen := make(map[string]bool)
	for _, r := range d.Rules {
		key := r.Component + "/" + r.Group + "/" + r.Condition
		if seen[key] {
			return fmt.Errorf("%w: %s", ErrDuplicateRule, key)
		}
		seen[key] = true
		perComponent[r.Component]++
	}

	for _, component := range []string{"mx", "spf", "dmarc", "dkim"} {
		if perComponent[component] == 0 {
			return fmt.Errorf("%w: %s", ErrNoRules, component)
		}
	}
	return nil
}

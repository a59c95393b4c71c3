package rules

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Store is the loaded, validated rule set. It is immutable after Load
// and safe for concurrent readers.
type Store struct {
	version   string
	caps      componentCaps
	points    map[string]float64
	grades    []GradeBand
	templates map[string]Template
	logger    *slog.Logger
}

// Load parses and validates a YAML rule document.
func Load(data []byte, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rules: parse: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}

	s := &Store{
		version:   doc.Version,
		caps:      doc.Caps,
		points:    make(map[string]float64, len(doc.Rules)),
		grades:    append([]GradeBand(nil), doc.Grades...),
		templates: make(map[string]Template, len(doc.Recommendations)),
		logger:    logger,
	}
	for _, r := range doc.Rules {
		s.points[r.Component+"/"+r.Group+"/"+r.Condition] = r.Points
	}
	for _, t := range doc.Recommendations {
		s.templates[t.Component+"/"+t.Condition] = t
	}

	sort.SliceStable(s.grades, func(i, j int) bool {
		return s.grades[i].MinScore > s.grades[j].MinScore
	})

	logger.Info("loaded scoring rules",
		"version", s.version,
		"rules", len(doc.Rules),
		"recommendations", len(doc.Recommendations))
	return s, nil
}

// LoadFile loads a rule document from path.
func LoadFile(path string, logger *slog.Logger) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	return Load(data, logger)
}

// LoadDefaults loads the embedded rule set. The embedded document is
// checked by tests, so failure here means a broken build.
func LoadDefaults(logger *slog.Logger) (*Store, error) {
	return Load(defaultsYAML, logger)
}

// Version returns the rule document version string.
func (s *Store) Version() string { return s.version }

// GetRulePoints returns the points for one rule condition. An unknown
// condition is worth zero and logged; scoring keeps going.
func (s *Store) GetRulePoints(component, group, condition string) float64 {
	p, ok := s.points[component+"/"+group+"/"+condition]
	if !ok {
		s.logger.Warn("no scoring rule found",
			"component", component, "group", group, "condition", condition)
		return 0
	}
	return p
}

// MaxScore returns the score ceiling for a component.
func (s *Store) MaxScore(component string) float64 {
	switch component {
	case "mx":
		return s.caps.MX
	case "spf":
		return s.caps.SPF
	case "dmarc":
		return s.caps.DMARC
	case "dkim":
		return s.caps.DKIM
	}
	return 0
}

// GradeBands returns the grade bands in descending MinScore order.
func (s *Store) GradeBands() []GradeBand {
	return append([]GradeBand(nil), s.grades...)
}

// Grade returns the band for a score: the highest band whose threshold
// the score meets.
func (s *Store) Grade(score float64) GradeBand {
	for _, band := range s.grades {
		if score >= band.MinScore {
			return band
		}
	}
	return s.grades[len(s.grades)-1]
}

// RecommendationTemplate returns the template keyed by (component,
// condition), reporting whether one exists.
func (s *Store) RecommendationTemplate(component, condition string) (Template, bool) {
	t, ok := s.templates[component+"/"+condition]
	return t, ok
}

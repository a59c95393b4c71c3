// Package spf extracts the facts needed for scoring from a published SPF
// TXT record. It classifies the record's all-qualifier into a policy and
// its mechanisms into coarse categories; it is not a full RFC 7208
// evaluator.
package spf

import "strings"

// Policy is the effective policy derived from the record's all-qualifier.
type Policy string

const (
	// PolicyReject corresponds to "-all": fail unauthorized senders.
	PolicyReject Policy = "reject"

	// PolicySoftfail corresponds to "~all": mark but accept.
	PolicySoftfail Policy = "softfail"

	// PolicyNeutral corresponds to "?all": no assertion.
	PolicyNeutral Policy = "neutral"

	// PolicyPermissive corresponds to "+all": accept everything.
	PolicyPermissive Policy = "permissive"

	// PolicyNone means the record carries no all-qualifier.
	PolicyNone Policy = ""
)

// Mechanism categories recognized for scoring.
const (
	MechanismInclude  = "include"
	MechanismDirectIP = "direct_ip"
	MechanismDomainA  = "domain_a"
	MechanismDomainMX = "domain_mx"
	MechanismRedirect = "redirect"
)

// Facts holds the structured fields extracted from an SPF record.
// A record that fails the version-prefix check has Valid=false and
// contributes nothing to scoring.
type Facts struct {
	// Valid reports whether the text is an SPF record ("v=spf1" prefix).
	Valid bool

	// Policy is derived from the last all-qualifier in the record.
	Policy Policy

	// Mechanisms lists the mechanism categories present, in record order.
	Mechanisms []string

	// Includes lists targets of include: mechanisms.
	Includes []string

	// IPs lists ip4:/ip6: terms verbatim.
	IPs []string

	// Redirects lists targets of redirect= modifiers.
	Redirects []string

	// Warnings describes non-fatal irregularities found while parsing.
	Warnings []string
}

// HasMechanism reports whether a mechanism category is present.
func (f *Facts) HasMechanism(category string) bool {
	for _, m := range f.Mechanisms {
		if m == category {
			return true
		}
	}
	return false
}

// IsSPF reports whether the TXT string looks like an SPF record.
func IsSPF(txt string) bool {
	return strings.HasPrefix(txt, "v=spf1")
}

// ParseRecord extracts scoring facts from an SPF TXT record.
// Malformed input never fails hard: the returned facts carry Valid=false
// and a warning instead.
func ParseRecord(txt string) *Facts {
	f := &Facts{}

	if !IsSPF(txt) {
		f.Warnings = append(f.Warnings, "invalid SPF version")
		return f
	}
	f.Valid = true

	for _, term := range strings.Fields(txt) {
		if strings.HasPrefix(term, "v=") {
			continue
		}

		switch {
		// The last all-qualifier wins.
		case strings.HasSuffix(term, "-all"):
			f.Policy = PolicyReject
		case strings.HasSuffix(term, "~all"):
			f.Policy = PolicySoftfail
		case strings.HasSuffix(term, "?all"):
			f.Policy = PolicyNeutral
		case strings.HasSuffix(term, "+all"):
			f.Policy = PolicyPermissive
		case strings.HasPrefix(term, "include:"):
			f.Includes = append(f.Includes, strings.TrimPrefix(term, "include:"))
			f.Mechanisms = append(f.Mechanisms, MechanismInclude)
		case strings.HasPrefix(term, "ip4:") || strings.HasPrefix(term, "ip6:"):
			f.IPs = append(f.IPs, term)
			f.Mechanisms = append(f.Mechanisms, MechanismDirectIP)
		case term == "a" || strings.HasPrefix(term, "a:"):
			f.Mechanisms = append(f.Mechanisms, MechanismDomainA)
		case term == "mx" || strings.HasPrefix(term, "mx:"):
			f.Mechanisms = append(f.Mechanisms, MechanismDomainMX)
		case strings.HasPrefix(term, "redirect="):
			f.Redirects = append(f.Redirects, strings.TrimPrefix(term, "redirect="))
			f.Mechanisms = append(f.Mechanisms, MechanismRedirect)
		}
	}

	if f.Policy == PolicyNone {
		f.Warnings = append(f.Warnings, "no policy specified (missing -all, ~all, ?all, +all)")
	}

	return f
}

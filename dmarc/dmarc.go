// Package dmarc extracts the facts needed for scoring from a published
// DMARC TXT record (the subset of RFC 7489 tags the scoring engine
// consumes; not a full grammar).
package dmarc

import (
	"fmt"
	"strconv"
	"strings"
)

// Policy is a DMARC disposition policy.
type Policy string

const (
	PolicyNone       Policy = "none"
	PolicyQuarantine Policy = "quarantine"
	PolicyReject     Policy = "reject"
	PolicyMissing    Policy = ""
)

// Facts holds the structured fields extracted from a DMARC record.
// A record that fails the version-prefix check has Valid=false and
// contributes nothing to scoring.
type Facts struct {
	// Valid reports whether the text is a DMARC record ("v=DMARC1" prefix).
	Valid bool

	// Policy is the p= tag value. Missing p= is a warning, not a failure.
	Policy Policy

	// SubdomainPolicy is the sp= tag value, if present.
	SubdomainPolicy Policy

	// Percentage is the pct= tag value. -1 when the tag is absent.
	Percentage int

	// RUA is the aggregate-report address list (rua tag), verbatim.
	RUA string

	// RUF is the failure-report address list (ruf tag), verbatim.
	RUF string

	// FailureOptions is the fo= tag value.
	FailureOptions string

	// ADKIM and ASPF are the alignment modes ("r" or "s").
	ADKIM string
	ASPF  string

	// ReportFormat is the rf= tag value.
	ReportFormat string

	// ReportInterval is the ri= tag value in seconds. 0 when absent.
	ReportInterval int

	// Warnings describes non-fatal irregularities found while parsing.
	Warnings []string
}

// EffectivePercentage returns the pct value with the RFC default of 100
// applied when the tag is absent.
func (f *Facts) EffectivePercentage() int {
	if f.Percentage < 0 {
		return 100
	}
	return f.Percentage
}

// IsDMARC reports whether the TXT string looks like a DMARC record.
func IsDMARC(txt string) bool {
	return strings.HasPrefix(txt, "v=DMARC1")
}

// ParseRecord extracts scoring facts from a DMARC TXT record.
// Malformed input never fails hard: the returned facts carry Valid=false
// and a warning instead.
func ParseRecord(txt string) *Facts {
	f := &Facts{Percentage: -1}

	if !IsDMARC(txt) {
		f.Warnings = append(f.Warnings, "invalid DMARC version")
		return f
	}
	f.Valid = true

	for _, part := range strings.Split(txt, ";") {
		part = strings.TrimSpace(part)
		idx := strings.Index(part, "=")
		if idx == -1 {
			continue
		}

		tag := strings.ToLower(strings.TrimSpace(part[:idx]))
		value := strings.TrimSpace(part[idx+1:])

		switch tag {
		case "p":
			f.Policy = Policy(value)
		case "sp":
			f.SubdomainPolicy = Policy(value)
		case "pct":
			pct, err := strconv.Atoi(value)
			if err != nil {
				f.Warnings = append(f.Warnings, fmt.Sprintf("invalid percentage value: %s", value))
				continue
			}
			f.Percentage = pct
			if pct < 0 || pct > 100 {
				f.Warnings = append(f.Warnings, fmt.Sprintf("percentage out of range: %d", pct))
			}
		case "rua":
			f.RUA = value
		case "ruf":
			f.RUF = value
		case "fo":
			f.FailureOptions = value
		case "adkim":
			f.ADKIM = value
		case "aspf":
			f.ASPF = value
		case "rf":
			f.ReportFormat = value
		case "ri":
			ri, err := strconv.Atoi(value)
			if err != nil {
				f.Warnings = append(f.Warnings, fmt.Sprintf("invalid report interval: %s", value))
				continue
			}
			f.ReportInterval = ri
		}
	}

	switch f.Policy {
	case PolicyMissing:
		f.Warnings = append(f.Warnings, "missing policy (p=)")
	case PolicyNone, PolicyQuarantine, PolicyReject:
	default:
		f.Warnings = append(f.Warnings, fmt.Sprintf("invalid policy value: %s", f.Policy))
	}

	return f
}

package mailaudit

import (
	"time"

	"github.com/synqronlabs/mailaudit/dkim"
	"github.com/synqronlabs/mailaudit/dmarc"
	"github.com/synqronlabs/mailaudit/mx"
	"github.com/synqronlabs/mailaudit/probe"
	"github.com/synqronlabs/mailaudit/recommend"
	"github.com/synqronlabs/mailaudit/score"
	"github.com/synqronlabs/mailaudit/selectors"
	"github.com/synqronlabs/mailaudit/spf"
)

// Status summarizes one component's lookup outcome.
type Status string

const (
	// StatusValid means records were found and parsed.
	StatusValid Status = "valid"

	// StatusMissing means DNS answered definitively with no records.
	StatusMissing Status = "missing"

	// StatusError means the lookup itself failed (timeout, SERVFAIL).
	StatusError Status = "error"
)

// recordPreviewLen is how much of a record the report carries verbatim.
const recordPreviewLen = 100

// Preview truncates a DNS record for display.
func Preview(record string) string {
	if len(record) <= recordPreviewLen {
		return record
	}
	return record[:recordPreviewLen] + "..."
}

// MXSection is the MX portion of a report.
type MXSection struct {
	Status      Status    `json:"status"`
	Description string    `json:"description"`
	Hosts       []string  `json:"hosts"`
	Facts       *mx.Facts `json:"-"`
}

// SPFSection is the SPF portion of a report.
type SPFSection struct {
	Status      Status     `json:"status"`
	Description string     `json:"description"`
	Records     []string   `json:"records"`
	Facts       *spf.Facts `json:"-"`
}

// DMARCSection is the DMARC portion of a report.
type DMARCSection struct {
	Status      Status       `json:"status"`
	Description string       `json:"description"`
	Record      string       `json:"record,omitempty"`
	Facts       *dmarc.Facts `json:"-"`
}

// SelectorReport is one resolved DKIM selector in a report.
type SelectorReport struct {
	Selector string           `json:"selector"`
	Source   selectors.Source `json:"source"`

	// Record is the truncated key record, for display only.
	Record string `json:"record"`

	KeyType  string `json:"key_type,omitempty"`
	KeyBits  int    `json:"key_bits,omitempty"`
	Strength string `json:"strength,omitempty"`
}

// SelectorAnalytics summarizes the selector sweep.
type SelectorAnalytics struct {
	Checked        int                    `json:"selectors_checked"`
	Found          int                    `json:"selectors_found"`
	TotalAvailable int                    `json:"total_available"`
	Counts         selectors.SourceCounts `json:"sources"`
	Duration       time.Duration          `json:"duration"`
}

// DKIMSection is the DKIM portion of a report.
type DKIMSection struct {
	Status      Status            `json:"status"`
	Description string            `json:"description"`
	Selectors   []SelectorReport  `json:"selectors"`
	Analytics   SelectorAnalytics `json:"analytics"`

	// Strength is the best key strength found across selectors.
	Strength string `json:"strength,omitempty"`
}

// Report is the full result of one domain scan.
type Report struct {
	// ID is a ULID assigned to the scan.
	ID string `json:"id"`

	Domain    string        `json:"domain"`
	CheckedAt time.Time     `json:"checked_at"`
	Duration  time.Duration `json:"duration"`

	MX    MXSection    `json:"mx"`
	SPF   SPFSection   `json:"spf"`
	DMARC DMARCSection `json:"dmarc"`
	DKIM  DKIMSection  `json:"dkim"`

	// Provider is the detected email provider, or "Unknown".
	Provider string `json:"email_provider"`

	Score           score.TotalScore           `json:"security_score"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// dkimSectionFromScan converts a probe sweep into the report section.
func dkimSectionFromScan(scan *probe.DKIMScan) DKIMSection {
	section := DKIMSection{
		Analytics: SelectorAnalytics{
			Checked:        scan.Checked,
			TotalAvailable: scan.TotalAvailable,
			Counts:         scan.Counts,
			Duration:       scan.Duration,
		},
	}

	best := ""
	for _, r := range scan.Found() {
		rep := SelectorReport{
			Selector: r.Selector,
			Source:   r.Source,
			Record:   Preview(r.Record),
		}
		if r.Key != nil {
			rep.KeyType = r.Key.KeyType
			rep.KeyBits = r.Key.KeyBits
			rep.Strength = r.Key.Strength
			if r.Key.Strength == dkim.StrengthStrong {
				best = dkim.StrengthStrong
			} else if best == "" {
				best = dkim.StrengthWeak
			}
		}
		section.Selectors = append(section.Selectors, rep)
	}

	section.Analytics.Found = len(section.Selectors)
	section.Strength = best

	if len(section.Selectors) > 0 {
		section.Status = StatusValid
		section.Description = "DKIM records found"
	} else {
		section.Status = StatusMissing
		section.Description = "No DKIM records found for any probed selector"
	}
	return section
}

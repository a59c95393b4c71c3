package mailaudit

import "strings"

// providerSignature matches one known email provider from scan evidence.
// The table is ordered; the first matching row wins.
type providerSignature struct {
	name          string
	mxSubstrings  []string
	spfSubstrings []string
	dkimSelectors []string

	// singleSelector marks providers that only publish one DKIM
	// selector, which suppresses multi-selector scoring and advice.
	singleSelector bool
}

var providerSignatures = []providerSignature{
	{
		name:           "Google Workspace",
		mxSubstrings:   []string{"google"},
		spfSubstrings:  []string{"_spf.google.com"},
		dkimSelectors:  []string{"google"},
		singleSelector: true,
	},
	{
		name:          "Microsoft 365",
		mxSubstrings:  []string{"outlook", "microsoft"},
		spfSubstrings: []string{"spf.protection.outlook.com"},
		dkimSelectors: []string{"selector1", "selector2"},
	},
	{
		name:         "Yahoo",
		mxSubstrings: []string{"yahoo"},
	},
	{
		name:         "Zoho",
		mxSubstrings: []string{"zoho"},
	},
	{
		name:         "Mailgun",
		mxSubstrings: []string{"mailgun"},
	},
	{
		name:          "SendGrid",
		mxSubstrings:  []string{"sendgrid"},
		spfSubstrings: []string{"sendgrid.net"},
	},
	{
		name:          "Amazon SES",
		spfSubstrings: []string{"amazonses.com"},
		dkimSelectors: []string{"amazonses", "ses"},
	},
	{
		name:          "DreamHost",
		mxSubstrings:  []string{"dreamhost"},
		dkimSelectors: []string{"dreamhost"},
	},
}

const providerUnknown = "Unknown"

// DetectProvider identifies the email provider from MX hosts, SPF
// records and resolved DKIM selectors.
func DetectProvider(mxHosts, spfRecords, dkimSelectors []string) string {
	sig := matchProvider(mxHosts, spfRecords, dkimSelectors)
	if sig == nil {
		return providerUnknown
	}
	return sig.name
}

func matchProvider(mxHosts, spfRecords, dkimSelectors []string) *providerSignature {
	for i := range providerSignatures {
		sig := &providerSignatures[i]
		if sig.matches(mxHosts, spfRecords, dkimSelectors) {
			return sig
		}
	}
	return nil
}

func (s *providerSignature) matches(mxHosts, spfRecords, dkimSelectors []string) bool {
	for _, host := range mxHosts {
		host = strings.ToLower(host)
		for _, sub := range s.mxSubstrings {
			if strings.Contains(host, sub) {
				return true
			}
		}
	}
	for _, record := range spfRecords {
		for _, sub := range s.spfSubstrings {
			if strings.Contains(record, sub) {
				return true
			}
		}
	}
	for _, sel := range dkimSelectors {
		for _, want := range s.dkimSelectors {
			if sel == want {
				return true
			}
		}
	}
	return false
}

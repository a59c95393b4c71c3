// Package mx classifies a domain's already-resolved MX records for scoring:
// redundancy, provider trust, and basic configuration hygiene.
package mx

import (
	"net"
	"strings"
)

// trustedProviders are substrings identifying well-operated mail hosts.
var trustedProviders = []string{"google", "microsoft", "outlook", "office365", "gmail"}

// Facts holds the classification of a domain's MX record set.
type Facts struct {
	// Count is the number of MX records.
	Count int

	// Hosts lists the exchange hostnames, lower-cased.
	Hosts []string

	// HasTrustedProvider reports whether any exchange matches the
	// trusted-provider allow-list.
	HasTrustedProvider bool

	// SecureConfiguration reports whether every exchange host is usable
	// (no empty, "." or localhost exchanges).
	SecureConfiguration bool
}

// Analyze classifies a set of resolved MX records.
func Analyze(records []*net.MX) *Facts {
	f := &Facts{
		Count:               len(records),
		SecureConfiguration: true,
	}

	for _, r := range records {
		host := strings.ToLower(strings.TrimSuffix(r.Host, "."))
		f.Hosts = append(f.Hosts, host)

		if host == "" || host == "." || host == "localhost" {
			f.SecureConfiguration = false
			continue
		}
		for _, p := range trustedProviders {
			if strings.Contains(host, p) {
				f.HasTrustedProvider = true
				break
			}
		}
	}

	return f
}

// Functional reports whether at least one exchange host is usable for
// delivery. A lone null MX ("."), RFC 7505, means the domain refuses mail.
func (f *Facts) Functional() bool {
	for _, h := range f.Hosts {
		if h != "" && h != "." && h != "localhost" {
			return true
		}
	}
	return false
}

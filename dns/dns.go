// Package dns provides the DNS lookups required for email-authentication
// auditing: TXT records (SPF, DMARC, DKIM) and MX records.
//
// Two implementations of Resolver are provided:
//
//   - DNSResolver, built on github.com/miekg/dns, with configurable
//     nameservers, per-query timeout and retries.
//   - StdResolver, built on the standard library net.Resolver.
//
// MockResolver serves tests; it counts queries so callers can assert that
// cached results short-circuit DNS traffic.
package dns

import (
	"context"
	"net"
)

// Resolver is the interface for the DNS lookups performed during a scan.
// Implementations must honor context cancellation and deadlines.
type Resolver interface {
	// LookupTXT retrieves TXT records for the given name. Multi-string TXT
	// records are joined per RFC 7208 Section 3.3.
	LookupTXT(ctx context.Context, name string) ([]string, error)

	// LookupMX retrieves MX records for the given name.
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

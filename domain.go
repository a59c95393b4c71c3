package mailaudit

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var (
	domainRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

	// Inputs that smell like injection attempts are rejected outright
	// rather than cleaned.
	hostileRe = regexp.MustCompile(`(?i)\.\.|[<>"']|javascript:|data:|vbscript:|file:|ftp:`)
)

// CleanDomain strips scheme and www prefixes, lowercases, and validates
// the remaining hostname. Raw IP addresses are rejected; scans operate
// on names, not addresses.
func CleanDomain(input string) (string, error) {
	domain := strings.TrimSpace(input)
	for _, prefix := range []string{"http://", "https://"} {
		domain = strings.TrimPrefix(domain, prefix)
	}
	domain = strings.TrimPrefix(domain, "www.")
	domain = strings.TrimSuffix(domain, ".")
	domain = strings.ToLower(domain)

	if domain == "" {
		return "", fmt.Errorf("%w: empty domain", ErrInvalidDomain)
	}
	if hostileRe.MatchString(domain) {
		return "", fmt.Errorf("%w: %q contains invalid characters", ErrInvalidDomain, input)
	}
	if net.ParseIP(domain) != nil {
		return "", fmt.Errorf("%w: IP addresses are not valid domains", ErrInvalidDomain)
	}
	if !domainRe.MatchString(domain) || !strings.Contains(domain, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, input)
	}
	return domain, nil
}

// RegistrableDomain returns the eTLD+1 for a cleaned hostname, so
// "mail.corp.example.co.uk" audits "example.co.uk". Names the public
// suffix list cannot resolve are used as given.
func RegistrableDomain(domain string) string {
	base, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return domain
	}
	return base
}

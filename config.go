package mailaudit

import (
	"log/slog"
	"time"

	"github.com/synqronlabs/mailaudit/dns"
	"github.com/synqronlabs/mailaudit/rules"
	"github.com/synqronlabs/mailaudit/selectors"
)

// Options configures an Auditor. The zero value is usable: every field
// falls back to a sensible default.
type Options struct {
	// Resolver performs DNS queries.
	// Default: a miekg/dns resolver using the system nameservers.
	Resolver dns.Resolver

	// Rules is the scoring rule set.
	// Default: the embedded rule document.
	Rules *rules.Store

	// Store holds per-domain selector profiles (admin-managed and
	// discovered selectors). Optional; without it scans still run, they
	// just cannot remember what they find.
	Store selectors.ProfileStore

	// Pool is the shared brute-force selector pool.
	// Default: the built-in pool.
	Pool *selectors.Pool

	// Concurrency bounds the DKIM selector fan-out.
	// Default: 8.
	Concurrency int

	// QueryTimeout bounds each DNS query.
	// Default: 5s.
	QueryTimeout time.Duration

	// CacheTTL is how long DNS answers are reused across scans.
	// Default: 10m.
	CacheTTL time.Duration

	// RatePerSecond bounds outbound DNS queries (0 = unlimited).
	RatePerSecond int

	// PhaseOneSize and PhaseTwoSize control the two-phase selector
	// sweep. Defaults: 30 and 50.
	PhaseOneSize int
	PhaseTwoSize int

	// MaxSelectorsPerScan caps the probe catalog per scan.
	// Default: 15.
	MaxSelectorsPerScan int

	// MaxBruteForce caps the brute-force share of the catalog.
	// Default: 10.
	MaxBruteForce int

	// QuickScanSize is how many catalog entries a quick scan probes.
	// Default: 5.
	QuickScanSize int

	// Logger receives structured scan logs.
	// Default: slog.Default().
	Logger *slog.Logger
}

func (o *Options) withDefaults() (Options, error) {
	opts := *o

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Resolver == nil {
		opts.Resolver = dns.NewResolver(dns.ResolverConfig{})
	}
	if opts.Rules == nil {
		store, err := rules.LoadDefaults(opts.Logger)
		if err != nil {
			return opts, err
		}
		opts.Rules = store
	}
	if opts.Pool == nil {
		opts.Pool = selectors.NewPool("", opts.Logger)
	}
	if opts.QuickScanSize <= 0 {
		opts.QuickScanSize = 5
	}
	return opts, nil
}

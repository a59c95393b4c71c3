// Package probe runs the DNS fan-out for a domain scan: MX, SPF and
// DMARC lookups plus the two-phase concurrent DKIM selector sweep.
// All lookups go through a shared TTL cache so repeated scans of the
// same domain within the window cost no network traffic.
package probe

import (
	"context"
	"net"
	"strings"
	"time"

	"log/slog"

	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"

	"github.com/synqronlabs/mailaudit/dkim"
	"github.com/synqronlabs/mailaudit/dmarc"
	"github.com/synqronlabs/mailaudit/dns"
	"github.com/synqronlabs/mailaudit/selectors"
	"github.com/synqronlabs/mailaudit/spf"
)

// ErrorKind classifies a failed selector probe.
type ErrorKind string

const (
	ErrorNone     ErrorKind = ""
	ErrorNXDomain ErrorKind = "nxdomain"
	ErrorTimeout  ErrorKind = "timeout"
	ErrorOther    ErrorKind = "other"
)

// SelectorResult is the outcome of probing one DKIM selector.
type SelectorResult struct {
	Selector string
	Source   selectors.Source

	// Found means the selector published a DKIM key record.
	Found bool

	// Record is the TXT answer when the name resolved, whether or not
	// it parsed as a DKIM record.
	Record string

	// ValidFormat means the record looks like a DKIM key record.
	ValidFormat bool

	// Key holds the parsed key facts when ValidFormat.
	Key *dkim.Facts

	ErrorKind  ErrorKind
	ObservedAt time.Time
}

// DKIMScan is the result of a selector sweep, in catalog order.
type DKIMScan struct {
	Domain  string
	Results []SelectorResult

	// Checked is how many candidates were actually probed; with a
	// two-phase sweep this may be fewer than the catalog length.
	Checked int

	// TotalAvailable mirrors the catalog's pre-cap candidate count.
	TotalAvailable int

	// Counts tallies the probed candidates by provenance source.
	Counts selectors.SourceCounts

	Duration time.Duration
}

// Found returns the results that resolved to a valid DKIM record.
func (s *DKIMScan) Found() []SelectorResult {
	var out []SelectorResult
	for _, r := range s.Results {
		if r.Found && r.ValidFormat {
			out = append(out, r)
		}
	}
	return out
}

// Config configures a probe engine. Zero values take defaults.
type Config struct {
	// Resolver performs the DNS queries. Required.
	Resolver dns.Resolver

	// Concurrency bounds the selector fan-out. Default: 8.
	Concurrency int

	// QueryTimeout bounds each DNS query. Default: 5s.
	QueryTimeout time.Duration

	// PhaseOneSize is how many candidates the first sweep covers;
	// PhaseTwoSize is how many more the escalation sweep covers when
	// phase one finds nothing. Defaults: 30 and 50.
	PhaseOneSize int
	PhaseTwoSize int

	// CacheTTL is how long DNS answers are reused. Default: 10m.
	CacheTTL time.Duration

	// RatePerSecond bounds outbound queries. Zero means unlimited.
	RatePerSecond int

	// Store receives discovered selectors, fire-and-forget. Optional.
	Store selectors.ProfileStore

	Logger *slog.Logger
}

// Engine runs probes for domain scans. Safe for concurrent use.
type Engine struct {
	resolver     dns.Resolver
	concurrency  int
	queryTimeout time.Duration
	phaseOne     int
	phaseTwo     int
	limiter      ratelimit.Limiter
	store        selectors.ProfileStore
	logger       *slog.Logger

	txtCache  *queryCache[[]string]
	mxCache   *queryCache[[]*net.MX]
	scanCache *queryCache[*DKIMScan]
}

// NewEngine creates a probe engine.
func NewEngine(config Config) *Engine {
	if config.Concurrency <= 0 {
		config.Concurrency = 8
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = 5 * time.Second
	}
	if config.PhaseOneSize <= 0 {
		config.PhaseOneSize = 30
	}
	if config.PhaseTwoSize <= 0 {
		config.PhaseTwoSize = 50
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 10 * time.Minute
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	limiter := ratelimit.NewUnlimited()
	if config.RatePerSecond > 0 {
		limiter = ratelimit.New(config.RatePerSecond)
	}

	return &Engine{
		resolver:     config.Resolver,
		concurrency:  config.Concurrency,
		queryTimeout: config.QueryTimeout,
		phaseOne:     config.PhaseOneSize,
		phaseTwo:     config.PhaseTwoSize,
		limiter:      limiter,
		store:        config.Store,
		logger:       config.Logger,
		txtCache:     newQueryCache[[]string](config.CacheTTL),
		mxCache:      newQueryCache[[]*net.MX](config.CacheTTL),
		scanCache:    newQueryCache[*DKIMScan](config.CacheTTL),
	}
}

// TXT resolves the TXT records for name through the cache.
func (e *Engine) TXT(ctx context.Context, name string) ([]string, error) {
	if records, err, ok := e.txtCache.get(name); ok {
		return records, err
	}

	e.limiter.Take()
	qctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	records, err := e.resolver.LookupTXT(qctx, name)
	if err != nil && !cacheable(err) {
		return nil, err
	}
	e.txtCache.put(name, records, err)
	return records, err
}

// MX resolves the MX records for domain through the cache.
func (e *Engine) MX(ctx context.Context, domain string) ([]*net.MX, error) {
	if records, err, ok := e.mxCache.get(domain); ok {
		return records, err
	}

	e.limiter.Take()
	qctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	records, err := e.resolver.LookupMX(qctx, domain)
	if err != nil && !cacheable(err) {
		return nil, err
	}
	e.mxCache.put(domain, records, err)
	return records, err
}

// cacheable reports whether a lookup error is a definitive answer worth
// caching. Timeouts and server failures are transient and retried.
func cacheable(err error) bool {
	return dns.IsNotFound(err)
}

// SPF returns the domain's SPF records.
func (e *Engine) SPF(ctx context.Context, domain string) ([]string, error) {
	records, err := e.TXT(ctx, domain)
	if err != nil {
		if dns.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []string
	for _, r := range records {
		if spf.IsSPF(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// DMARC returns the domain's DMARC record, or empty if none exists.
func (e *Engine) DMARC(ctx context.Context, domain string) (string, error) {
	records, err := e.TXT(ctx, "_dmarc."+domain)
	if err != nil {
		if dns.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}

	for _, r := range records {
		if dmarc.IsDMARC(r) {
			return r, nil
		}
	}
	return "", nil
}

// ProbeSelectors sweeps the catalog's DKIM selector candidates against
// domain. Phase one covers the head of the catalog; if nothing resolves
// there the sweep escalates to the next phase-two batch. Results come
// back in catalog order regardless of probe completion order. A repeat
// scan of the same domain within the cache TTL returns the prior result
// set without issuing any queries.
func (e *Engine) ProbeSelectors(ctx context.Context, domain string, catalog *selectors.Catalog) (*DKIMScan, error) {
	if scan, _, ok := e.scanCache.get(domain); ok {
		e.logger.Debug("selector sweep served from cache", "domain", domain)
		return scan, nil
	}

	scan, err := e.runSweep(ctx, domain, catalog)
	if err != nil {
		return nil, err
	}

	e.scanCache.put(domain, scan, nil)
	e.reportDiscoveries(domain, scan)
	return scan, nil
}

// ProbeSelectorsUncached sweeps without consulting or filling the
// per-domain scan cache. Partial sweeps over a truncated catalog use
// this so their shorter result set is never served for a full scan.
func (e *Engine) ProbeSelectorsUncached(ctx context.Context, domain string, catalog *selectors.Catalog) (*DKIMScan, error) {
	scan, err := e.runSweep(ctx, domain, catalog)
	if err != nil {
		return nil, err
	}
	e.reportDiscoveries(domain, scan)
	return scan, nil
}

func (e *Engine) runSweep(ctx context.Context, domain string, catalog *selectors.Catalog) (*DKIMScan, error) {
	start := time.Now()

	candidates := catalog.Candidates
	first := min(len(candidates), e.phaseOne)

	results := make([]SelectorResult, len(candidates))
	if err := e.sweep(ctx, domain, candidates[:first], results[:first]); err != nil {
		return nil, err
	}

	checked := first
	if first < len(candidates) && countFound(results[:first]) == 0 {
		limit := min(len(candidates), first+e.phaseTwo)
		if limit > first {
			e.logger.Debug("escalating selector sweep",
				"domain", domain, "from", first, "to", limit)
			if err := e.sweep(ctx, domain, candidates[first:limit], results[first:limit]); err != nil {
				return nil, err
			}
			checked = limit
		}
	}

	scan := &DKIMScan{
		Domain:         domain,
		Results:        results[:checked],
		Checked:        checked,
		TotalAvailable: catalog.TotalAvailable,
		Counts:         selectors.CountBySource(candidates[:checked]),
		Duration:       time.Since(start),
	}

	e.logger.Info("selector sweep complete",
		"domain", domain,
		"checked", scan.Checked,
		"found", len(scan.Found()),
		"duration", scan.Duration)
	return scan, nil
}

// sweep probes one slice of candidates concurrently, writing each
// outcome to the matching results slot.
func (e *Engine) sweep(ctx context.Context, domain string, candidates []selectors.Candidate, results []SelectorResult) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			results[i] = e.probeOne(gctx, domain, cand)
			return gctx.Err()
		})
	}
	return g.Wait()
}

func (e *Engine) probeOne(ctx context.Context, domain string, cand selectors.Candidate) SelectorResult {
	result := SelectorResult{
		Selector:   cand.Selector,
		Source:     cand.Source,
		ObservedAt: time.Now(),
	}

	records, err := e.TXT(ctx, cand.Selector+"._domainkey."+domain)
	if err != nil {
		switch {
		case dns.IsNotFound(err):
			result.ErrorKind = ErrorNXDomain
		case dns.IsTimeout(err):
			result.ErrorKind = ErrorTimeout
		default:
			result.ErrorKind = ErrorOther
		}
		return result
	}
	if len(records) == 0 {
		result.ErrorKind = ErrorNXDomain
		return result
	}

	record := strings.TrimSpace(records[0])
	for _, r := range records {
		if dkim.IsDKIM(r) {
			record = strings.TrimSpace(r)
			break
		}
	}

	// A TXT answer that is not a DKIM record does not count as found.
	result.Record = record
	if dkim.IsDKIM(record) {
		result.Found = true
		result.ValidFormat = true
		result.Key = dkim.ParseRecord(record)
	}
	return result
}

// reportDiscoveries tells the profile store about brute-force hits so
// later scans of the domain try them first. Failures only log; the scan
// result does not wait on the store.
func (e *Engine) reportDiscoveries(domain string, scan *DKIMScan) {
	if e.store == nil {
		return
	}
	for _, r := range scan.Found() {
		if r.Source != selectors.SourceBruteForce {
			continue
		}
		go func(selector string) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.store.AddDiscoveredSelector(ctx, domain, selector, "dns_scan"); err != nil {
				e.logger.Warn("failed to record discovered selector",
					"domain", domain, "selector", selector, "error", err)
			}
		}(r.Selector)
	}
}

func countFound(results []SelectorResult) int {
	n := 0
	for _, r := range results {
		if r.Found && r.ValidFormat {
			n++
		}
	}
	return n
}

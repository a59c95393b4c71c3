// Mailaudit audits a domain's email authentication posture.
//
// A single scan resolves the domain's MX, SPF and DMARC records, sweeps
// a prioritized catalog of DKIM selector candidates, scores each
// component against a declarative rule set, and derives ordered
// remediation recommendations:
//
//	auditor, err := mailaudit.New(&mailaudit.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := auditor.CheckDomain(ctx, "example.com")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s: %.0f/100 (%s)\n", report.Domain, report.Score.Score, report.Score.Grade)
//
// Selector candidates are merged from four provenance sources: an
// optional caller-supplied selector, admin-managed selectors, selectors
// discovered by earlier scans, and a brute-force pool narrowed by the
// domain's provider. DNS answers are cached, so repeated scans of the
// same domain inside the cache window are cheap.
package mailaudit

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/synqronlabs/mailaudit/dkim"
	"github.com/synqronlabs/mailaudit/dmarc"
	"github.com/synqronlabs/mailaudit/dns"
	"github.com/synqronlabs/mailaudit/mx"
	"github.com/synqronlabs/mailaudit/probe"
	"github.com/synqronlabs/mailaudit/recommend"
	"github.com/synqronlabs/mailaudit/rules"
	"github.com/synqronlabs/mailaudit/score"
	"github.com/synqronlabs/mailaudit/selectors"
	"github.com/synqronlabs/mailaudit/spf"
)

// Auditor runs domain scans. Safe for concurrent use.
type Auditor struct {
	opts      Options
	probe     *probe.Engine
	catalog   *selectors.Builder
	scorer    *score.Engine
	recommend *recommend.Engine
	logger    *slog.Logger
}

// New creates an Auditor. It fails only if a rule set cannot be loaded.
func New(options *Options) (*Auditor, error) {
	if options == nil {
		options = &Options{}
	}
	opts, err := options.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("mailaudit: %w", err)
	}

	engine := probe.NewEngine(probe.Config{
		Resolver:      opts.Resolver,
		Concurrency:   opts.Concurrency,
		QueryTimeout:  opts.QueryTimeout,
		PhaseOneSize:  opts.PhaseOneSize,
		PhaseTwoSize:  opts.PhaseTwoSize,
		CacheTTL:      opts.CacheTTL,
		RatePerSecond: opts.RatePerSecond,
		Store:         opts.Store,
		Logger:        opts.Logger,
	})

	return &Auditor{
		opts:  opts,
		probe: engine,
		catalog: selectors.NewBuilder(selectors.BuilderConfig{
			MaxPerScan:    opts.MaxSelectorsPerScan,
			MaxBruteForce: opts.MaxBruteForce,
		}),
		scorer:    score.NewEngine(opts.Rules, opts.Logger),
		recommend: recommend.NewEngine(opts.Rules, opts.Logger),
		logger:    opts.Logger,
	}, nil
}

// Rules exposes the auditor's rule store.
func (a *Auditor) Rules() *rules.Store { return a.opts.Rules }

// Pool exposes the auditor's brute-force selector pool for admin use.
func (a *Auditor) Pool() *selectors.Pool { return a.opts.Pool }

// CheckDomain runs a full scan of domain.
func (a *Auditor) CheckDomain(ctx context.Context, domain string) (*Report, error) {
	return a.check(ctx, domain, "")
}

// CheckDomainWithSelector runs a full scan probing selector first.
func (a *Auditor) CheckDomainWithSelector(ctx context.Context, domain, selector string) (*Report, error) {
	if selector != "" && !selectors.ValidSelector(selector) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSelector, selector)
	}
	return a.check(ctx, domain, selector)
}

// QuickDKIMScan probes only the head of the selector catalog, for
// progressive UIs that want an early DKIM verdict.
func (a *Auditor) QuickDKIMScan(ctx context.Context, domain string) (*DKIMSection, error) {
	domain, err := CleanDomain(domain)
	if err != nil {
		return nil, err
	}
	domain = RegistrableDomain(domain)

	var mxHosts []string
	if records, err := a.probe.MX(ctx, domain); err == nil {
		mxHosts = mx.Analyze(records).Hosts
	}

	catalog, err := a.buildCatalog(ctx, domain, "", mxHosts)
	if err != nil {
		return nil, err
	}
	catalog.Truncate(a.opts.QuickScanSize)

	scan, err := a.probe.ProbeSelectorsUncached(ctx, domain, catalog)
	if err != nil {
		return nil, err
	}
	section := dkimSectionFromScan(scan)
	return &section, nil
}

func (a *Auditor) check(ctx context.Context, rawDomain, customSelector string) (*Report, error) {
	start := time.Now()

	domain, err := CleanDomain(rawDomain)
	if err != nil {
		return nil, err
	}
	domain = RegistrableDomain(domain)

	a.logger.Info("starting domain scan", "domain", domain, "custom_selector", customSelector)

	report := &Report{
		ID:        ulid.Make().String(),
		Domain:    domain,
		CheckedAt: start,
	}

	mxFacts := a.checkMX(ctx, domain, report)
	spfFacts := a.checkSPF(ctx, domain, report)
	dmarcFacts := a.checkDMARC(ctx, domain, report)

	catalog, err := a.buildCatalog(ctx, domain, customSelector, report.MX.Hosts)
	if err != nil {
		return nil, err
	}
	scan, err := a.probe.ProbeSelectors(ctx, domain, catalog)
	if err != nil {
		return nil, err
	}
	report.DKIM = dkimSectionFromScan(scan)

	var foundSelectors []string
	for _, s := range report.DKIM.Selectors {
		foundSelectors = append(foundSelectors, s.Selector)
	}
	report.Provider = DetectProvider(report.MX.Hosts, report.SPF.Records, foundSelectors)
	sig := matchProvider(report.MX.Hosts, report.SPF.Records, foundSelectors)
	singleSelector := sig != nil && sig.singleSelector

	scores := map[string]score.ComponentScore{
		"mx":    a.scorer.ScoreMX(mxFacts),
		"spf":   a.scorer.ScoreSPF(spfFacts),
		"dmarc": a.scorer.ScoreDMARC(dmarcFacts),
		"dkim": a.scorer.ScoreDKIM(score.DKIMInput{
			SelectorsFound:         len(report.DKIM.Selectors),
			Strength:               report.DKIM.Strength,
			SingleSelectorProvider: singleSelector,
		}),
	}
	report.Score = a.scorer.Total(scores)

	report.Recommendations = a.recommend.Generate(recommend.Input{
		Scores:                 scores,
		DMARC:                  dmarcFacts,
		DKIMKeyWeak:            weakKeyFound(report.DKIM),
		SingleSelectorProvider: singleSelector,
		TotalScore:             report.Score.Score,
	})

	report.Duration = time.Since(start)
	a.logger.Info("domain scan complete",
		"domain", domain,
		"score", report.Score.Score,
		"grade", report.Score.Grade,
		"provider", report.Provider,
		"duration", report.Duration)
	return report, nil
}

func (a *Auditor) checkMX(ctx context.Context, domain string, report *Report) *mx.Facts {
	records, err := a.probe.MX(ctx, domain)
	if err != nil {
		if dns.IsNotFound(err) {
			report.MX = MXSection{Status: StatusMissing, Description: "No MX records found"}
		} else {
			report.MX = MXSection{Status: StatusError, Description: err.Error()}
		}
		return nil
	}

	facts := mx.Analyze(records)
	report.MX = MXSection{Hosts: facts.Hosts, Facts: facts}
	switch {
	case facts.Count == 0 || !facts.Functional():
		report.MX.Status = StatusMissing
		report.MX.Description = "No functional MX records found"
	default:
		report.MX.Status = StatusValid
		report.MX.Description = fmt.Sprintf("%d MX records found", facts.Count)
	}
	return facts
}

func (a *Auditor) checkSPF(ctx context.Context, domain string, report *Report) *spf.Facts {
	records, err := a.probe.SPF(ctx, domain)
	if err != nil {
		report.SPF = SPFSection{Status: StatusError, Description: err.Error()}
		return nil
	}
	if len(records) == 0 {
		report.SPF = SPFSection{Status: StatusMissing, Description: "No SPF record found"}
		return nil
	}

	facts := spf.ParseRecord(records[0])
	report.SPF = SPFSection{
		Status:      StatusValid,
		Description: "SPF record found",
		Records:     records,
		Facts:       facts,
	}
	if len(records) > 1 {
		// Multiple SPF records are a misconfiguration per RFC 7208.
		report.SPF.Description = fmt.Sprintf("%d SPF records found (only one is allowed)", len(records))
	}
	return facts
}

func (a *Auditor) checkDMARC(ctx context.Context, domain string, report *Report) *dmarc.Facts {
	record, err := a.probe.DMARC(ctx, domain)
	if err != nil {
		report.DMARC = DMARCSection{Status: StatusError, Description: err.Error()}
		return nil
	}
	if record == "" {
		report.DMARC = DMARCSection{Status: StatusMissing, Description: "No DMARC record found"}
		return nil
	}

	facts := dmarc.ParseRecord(record)
	report.DMARC = DMARCSection{
		Status:      StatusValid,
		Description: fmt.Sprintf("DMARC record found with policy %q", facts.Policy),
		Record:      record,
		Facts:       facts,
	}
	return facts
}

func (a *Auditor) buildCatalog(ctx context.Context, domain, custom string, mxHosts []string) (*selectors.Catalog, error) {
	in := selectors.BuildInput{
		Custom:  custom,
		MXHosts: mxHosts,
		Pool:    a.opts.Pool.Selectors(),
	}

	if a.opts.Store != nil {
		admin, err := a.opts.Store.AdminSelectors(ctx, domain)
		if err != nil {
			a.logger.Warn("failed to load admin selectors", "domain", domain, "error", err)
		} else {
			in.Admin = admin
		}

		discovered, err := a.opts.Store.DiscoveredSelectors(ctx, domain)
		if err != nil {
			a.logger.Warn("failed to load discovered selectors", "domain", domain, "error", err)
		} else {
			in.Discovered = discovered
		}
	}

	return a.catalog.Build(in), nil
}

func weakKeyFound(section DKIMSection) bool {
	for _, s := range section.Selectors {
		if s.Strength != "" && s.Strength != dkim.StrengthStrong {
			return true
		}
	}
	return false
}

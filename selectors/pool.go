package selectors

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

//go:embed default_pool.txt
var defaultPool []byte

// Pool is the process-wide brute-force selector pool: one ordered list of
// selector strings shared across all domains. The backing file holds one
// selector per line. Reads and administrative updates may race, so access
// is guarded by a read-write lock; a scan sees a consistent snapshot.
type Pool struct {
	mu        sync.RWMutex
	path      string
	selectors []string
	logger    *slog.Logger
}

// NewPool creates a pool backed by the file at path. An empty path keeps
// the pool purely in-memory. The pool starts with the built-in default
// list; call Load to read the file.
func NewPool(path string, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		path:      path,
		selectors: parsePool(defaultPool),
		logger:    logger,
	}
}

// parsePool reads one selector per line, skipping blanks.
func parsePool(data []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Load reads the pool from the backing file. A missing file is not an
// error: the built-in defaults stay in effect.
func (p *Pool) Load() error {
	if p.path == "" {
		return nil
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			p.logger.Warn("selector pool file not found, using defaults",
				"path", p.path)
			return nil
		}
		return fmt.Errorf("selectors: load pool: %w", err)
	}

	loaded := parsePool(data)
	p.mu.Lock()
	p.selectors = loaded
	p.mu.Unlock()

	p.logger.Info("loaded brute force selectors", "count", len(loaded), "path", p.path)
	return nil
}

// Reload re-reads the backing file. Intended for an admin-triggered
// refresh; in-flight scans keep the snapshot they already took.
func (p *Pool) Reload() error {
	return p.Load()
}

// Selectors returns a snapshot copy of the pool.
func (p *Pool) Selectors() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.selectors))
	copy(out, p.selectors)
	return out
}

// Len returns the current pool size.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.selectors)
}

// Set replaces the pool contents and, when file-backed, persists them.
// Every selector must be a valid DNS label.
func (p *Pool) Set(selectors []string) error {
	for _, s := range selectors {
		if !ValidSelector(s) {
			return fmt.Errorf("selectors: invalid selector %q", s)
		}
	}

	p.mu.Lock()
	p.selectors = append([]string(nil), selectors...)
	p.mu.Unlock()

	if p.path == "" {
		return nil
	}

	var b strings.Builder
	for _, s := range selectors {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(p.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("selectors: save pool: %w", err)
	}

	p.logger.Info("saved brute force selectors", "count", len(selectors), "path", p.path)
	return nil
}

package dns

import (
	"context"
	"net"
	"slices"
	"sync"
)

// MockResolver is a Resolver used for testing.
// Set DNS records in the fields, which map FQDNs (with trailing dot) to values.
type MockResolver struct {
	TXT map[string][]string
	MX  map[string][]*net.MX

	// Fail contains records that will return a server failure.
	// Format: "type name", e.g. "txt example.com." where type is lowercase.
	Fail []string

	// Slow contains records that will return a timeout error.
	// Same format as Fail.
	Slow []string

	mu      sync.Mutex
	queries map[string]int
}

var _ Resolver = (*MockResolver)(nil)

// mockReq represents a mock DNS request.
type mockReq struct {
	Type string // "txt" or "mx"
	Name string // FQDN with trailing dot
}

func (mr mockReq) String() string {
	return mr.Type + " " + mr.Name
}

// ensureFQDN ensures the name ends with a dot.
func ensureFQDN(name string) string {
	if len(name) == 0 || name[len(name)-1] != '.' {
		return name + "."
	}
	return name
}

func (r *MockResolver) record(ctx context.Context, mr mockReq) error {
	r.mu.Lock()
	if r.queries == nil {
		r.queries = make(map[string]int)
	}
	r.queries[mr.String()]++
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if slices.Contains(r.Slow, mr.String()) {
		return ErrTimeout
	}
	if slices.Contains(r.Fail, mr.String()) {
		return ErrServFail
	}
	return nil
}

// LookupTXT returns TXT records for the given name.
func (r *MockResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	fqdn := ensureFQDN(name)
	if err := r.record(ctx, mockReq{"txt", fqdn}); err != nil {
		return nil, err
	}

	records, ok := r.TXT[fqdn]
	if !ok || len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

// LookupMX returns MX records for the given name.
func (r *MockResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	fqdn := ensureFQDN(name)
	if err := r.record(ctx, mockReq{"mx", fqdn}); err != nil {
		return nil, err
	}

	records, ok := r.MX[fqdn]
	if !ok || len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

// Queries returns the total number of lookups issued against the mock.
func (r *MockResolver) Queries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for _, c := range r.queries {
		n += c
	}
	return n
}

// QueriesFor returns the number of lookups issued for a specific record,
// e.g. QueriesFor("txt", "example.com.").
func (r *MockResolver) QueriesFor(qtype, name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queries[mockReq{qtype, ensureFQDN(name)}.String()]
}

package dns

import (
	"context"
	"errors"
	"net"
)

var (
	// ErrNotFound indicates the queried record does not exist (NXDOMAIN or
	// an empty answer section). This is an expected outcome when probing
	// selector candidates.
	ErrNotFound = errors.New("dns: record not found")

	// ErrTimeout indicates the query did not complete within the configured
	// per-query timeout.
	ErrTimeout = errors.New("dns: query timeout")

	// ErrServFail indicates the DNS server reported a failure (SERVFAIL,
	// REFUSED, or an unexpected rcode).
	ErrServFail = errors.New("dns: server failure")
)

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTimeout reports whether err indicates a query timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// IsTemporary reports whether err is transient and a retry may succeed.
func IsTemporary(err error) bool {
	return IsTimeout(err) || errors.Is(err, ErrServFail)
}

// convertError maps standard library DNS errors to package sentinels.
func convertError(err error) error {
	if err == nil {
		return nil
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsNotFound:
			return ErrNotFound
		case dnsErr.IsTimeout:
			return ErrTimeout
		case dnsErr.IsTemporary:
			return ErrServFail
		}
	}
	return err
}

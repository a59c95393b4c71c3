package mailaudit

import "errors"

var (
	// ErrInvalidDomain indicates the domain input failed validation.
	ErrInvalidDomain = errors.New("mailaudit: invalid domain")

	// ErrInvalidSelector indicates a custom selector failed validation.
	ErrInvalidSelector = errors.New("mailaudit: invalid selector")
)

// IsInvalidInput reports whether err is a domain or selector validation
// failure, as opposed to a scan-time failure.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidDomain) || errors.Is(err, ErrInvalidSelector)
}

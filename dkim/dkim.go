// Package dkim extracts the facts needed for scoring from a published DKIM
// key record (<selector>._domainkey.<domain>). Key length is estimated from
// the base64 key blob length; this is a heuristic classification, not a
// cryptographic measurement.
package dkim

import "strings"

// Key strength classifications consumed by the scoring engine.
const (
	StrengthStrong = "strong"
	StrengthWeak   = "weak"
)

// Facts holds the structured fields extracted from a DKIM key record.
// A record that fails the version-prefix check has Valid=false and
// contributes nothing to scoring.
type Facts struct {
	// Valid reports whether the text is a DKIM record ("v=DKIM1" prefix).
	Valid bool

	// KeyType is "RSA" or "Ed25519", inferred from the key blob prefix.
	KeyType string

	// KeyBits is the estimated key length tier: 2048, 1024 or 512 for RSA,
	// 256 for Ed25519, 0 when no key material is present.
	KeyBits int

	// Strength is the classification consumed downstream: "strong" or "weak".
	// RSA keys estimated at 2048 bits or more and Ed25519 keys are strong.
	Strength string

	// Warnings describes non-fatal irregularities found while parsing.
	Warnings []string
}

// IsDKIM reports whether the TXT string looks like a DKIM key record.
func IsDKIM(txt string) bool {
	return strings.HasPrefix(txt, "v=DKIM1")
}

// ParseRecord extracts scoring facts from a DKIM key record.
// Malformed input never fails hard: the returned facts carry Valid=false
// and a warning instead.
func ParseRecord(txt string) *Facts {
	f := &Facts{Strength: StrengthWeak}

	if !IsDKIM(txt) {
		f.Warnings = append(f.Warnings, "invalid DKIM version")
		return f
	}
	f.Valid = true

	var keyAlgo string

	for _, part := range strings.Split(txt, ";") {
		part = strings.TrimSpace(part)
		idx := strings.Index(part, "=")
		if idx == -1 {
			continue
		}

		tag := strings.ToLower(strings.TrimSpace(part[:idx]))
		value := strings.TrimSpace(part[idx+1:])

		switch tag {
		case "k":
			keyAlgo = strings.ToLower(value)
		case "p":
			f.KeyType, f.KeyBits = estimateKey(value)
		}
	}

	if f.KeyType == "" && keyAlgo != "" {
		// No key blob to inspect; fall back to the declared algorithm.
		if keyAlgo == "ed25519" {
			f.KeyType = "Ed25519"
			f.KeyBits = 256
		} else {
			f.KeyType = "RSA"
		}
	}
	if f.KeyType == "" {
		f.Warnings = append(f.Warnings, "missing public key (p=)")
	}

	switch {
	case f.KeyType == "Ed25519":
		f.Strength = StrengthStrong
	case f.KeyType == "RSA" && f.KeyBits >= 2048:
		f.Strength = StrengthStrong
	}

	return f
}

// estimateKey infers the key type and length tier from the base64 blob.
// PKIX RSA keys start with "MII"; Ed25519 keys with "MC". The bit count is
// approximated as 6 bits per base64 character and snapped to the nearest
// conventional key size below it.
func estimateKey(blob string) (keyType string, bits int) {
	switch {
	case strings.HasPrefix(blob, "MII"):
		estimated := len(blob) * 6
		switch {
		case estimated >= 2048:
			return "RSA", 2048
		case estimated >= 1024:
			return "RSA", 1024
		default:
			return "RSA", 512
		}
	case strings.HasPrefix(blob, "MC"):
		return "Ed25519", 256
	}
	return "", 0
}

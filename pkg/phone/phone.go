// Package phone normalizes buyer phone numbers into the canonical form the
// storefront server expects: a bare 10-digit Indian number, or a
// +-prefixed NANP number.
package phone

import (
	"strings"

	pkgerrors "github.com/arvindpillai/shopline-checkout/pkg/errors"
)

// Normalize canonicalizes a raw phone input. The rules are shared with the
// server and must be applied in order. Normalize is idempotent for every
// accepted input.
func Normalize(raw string) (string, error) {
	input := strings.TrimSpace(raw)
	digits := stripNonDigits(input)

	switch {
	case strings.HasPrefix(input, "+1") && len(digits) == 11 && digits[0] == '1':
		// NANP number dialed with its country code; keep the + prefix.
		return "+" + digits, nil
	case !strings.HasPrefix(input, "+") && len(digits) == 11 && digits[0] == '1':
		return digits, nil
	case strings.HasPrefix(input, "+91"):
		if len(digits) == 12 && strings.HasPrefix(digits, "91") {
			return digits[2:], nil
		}
		return "", invalid(raw, digits)
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return digits[2:], nil
	case len(digits) == 11 && digits[0] == '0':
		return digits[1:], nil
	case len(digits) == 10:
		return digits, nil
	default:
		return "", invalid(raw, digits)
	}
}

func invalid(raw, cleaned string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid phone number").WithDetails(map[string]any{
		"raw":     raw,
		"cleaned": cleaned,
	})
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Package address normalizes originator and destination identifiers so that
// every lookup (routing, identity, spam) sees the same canonical value.
package address

import "strings"

// Normalize lowercases the value and strips phone formatting when the value
// looks like a phone number.
func Normalize(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if LooksLikePhone(value) {
		return DigitsOnly(value)
	}
	return value
}

// LooksLikePhone reports whether the value contains only phone characters and
// at least seven digits.
func LooksLikePhone(value string) bool {
	digits := 0
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= 7
}

// DigitsOnly strips everything but digits.
func DigitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NormalizePhone strips every non-digit character from `phone` and prepends
// `countryCode` unless the digits already start with it.
// e.g. "(11) 98888-7777" -> "5511988887777" for countryCode "55".
func NormalizePhone(phone, countryCode string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	if s == "" {
		return s
	}
	if !strings.HasPrefix(s, countryCode) {
		return countryCode + s
	}
	return s
}

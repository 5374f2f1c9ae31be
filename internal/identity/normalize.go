package identity

import "strings"

// NormalizeLogin performs case-insensitive canonicalization of a login name.
// Only trim + lower-case for now; stricter rules can be added behind a
// versioned policy.
func NormalizeLogin(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

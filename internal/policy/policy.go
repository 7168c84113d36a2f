// Package policy centralizes input sanitization for names that end up on
// the target machine.
package policy

import (
	"regexp"
	"strings"
)

const (
	// MaxHostnameLen is the NetBIOS-compatible hostname limit.
	MaxHostnameLen = 15
	// MaxUsernameLen is the local account name limit.
	MaxUsernameLen = 32
)

var (
	hostnameInvalid = regexp.MustCompile(`[^a-zA-Z0-9-]`)
	usernameInvalid = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// SanitizeHostname reduces a device name to lowercase alphanumerics and
// hyphens, capped at 15 characters, with no leading or trailing hyphen.
func SanitizeHostname(hostname string) string {
	clean := hostnameInvalid.ReplaceAllString(hostname, "")
	clean = strings.ToLower(strings.Trim(clean, "-"))

	if len(clean) > MaxHostnameLen {
		clean = clean[:MaxHostnameLen]
		clean = strings.Trim(clean, "-")
	}

	if clean == "" {
		return "unknown-device"
	}
	return clean
}

// SanitizeUsername reduces an account name to lowercase a-z0-9._- capped at
// 32 characters.
func SanitizeUsername(username string) string {
	clean := usernameInvalid.ReplaceAllString(username, "")
	clean = strings.ToLower(clean)

	if len(clean) > MaxUsernameLen {
		clean = clean[:MaxUsernameLen]
	}

	if clean == "" {
		return "user"
	}
	return clean
}

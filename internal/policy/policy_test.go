package policy_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sstreeter/WINTOOLS/internal/policy"
)

func TestSanitizeHostname(t *testing.T) {
	tests := map[string]struct {
		hostname string
		exp      string
	}{
		"Valid hostname passes through lowercased": {
			hostname: "WS-0042",
			exp:      "ws-0042",
		},
		"Invalid characters are stripped": {
			hostname: "ws_00.42!",
			exp:      "ws0042",
		},
		"Spaces are stripped": {
			hostname: "front desk 3",
			exp:      "frontdesk3",
		},
		"Leading and trailing hyphens are trimmed": {
			hostname: "--ws-0042--",
			exp:      "ws-0042",
		},
		"Long names are capped at the NetBIOS limit": {
			hostname: strings.Repeat("a", 40),
			exp:      strings.Repeat("a", 15),
		},
		"A trailing hyphen exposed by the cap is trimmed too": {
			hostname: strings.Repeat("a", 14) + "-b",
			exp:      strings.Repeat("a", 14),
		},
		"Empty input falls back to a safe default": {
			hostname: "",
			exp:      "unknown-device",
		},
		"Only invalid characters fall back to a safe default": {
			hostname: "!!##--",
			exp:      "unknown-device",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.exp, policy.SanitizeHostname(tt.hostname))
		})
	}
}

func TestSanitizeUsername(t *testing.T) {
	tests := map[string]struct {
		username string
		exp      string
	}{
		"Valid username passes through lowercased": {
			username: "Svc.Deploy",
			exp:      "svc.deploy",
		},
		"Invalid characters are stripped": {
			username: "svc deploy!",
			exp:      "svcdeploy",
		},
		"Dots underscores and hyphens are kept": {
			username: "svc.dep_loy-1",
			exp:      "svc.dep_loy-1",
		},
		"Long names are capped": {
			username: strings.Repeat("a", 50),
			exp:      strings.Repeat("a", 32),
		},
		"Empty input falls back to a safe default": {
			username: "",
			exp:      "user",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.exp, policy.SanitizeUsername(tt.username))
		})
	}
}

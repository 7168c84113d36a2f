package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfirmer(t *testing.T) {
	tests := map[string]struct {
		assumeYes bool
		input     string
		exp       bool
	}{
		"Assume yes never prompts":       {assumeYes: true, exp: true},
		"Answering y confirms":           {input: "y\n", exp: true},
		"Answering yes confirms":         {input: "YES\n", exp: true},
		"Answering n declines":           {input: "n\n", exp: false},
		"An empty answer declines":       {input: "\n", exp: false},
		"Anything else declines":         {input: "maybe\n", exp: false},
		"Whitespace is trimmed":          {input: "  y  \n", exp: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd := &RootCommand{
				Stdin:  strings.NewReader(tt.input),
				Stdout: &out,
			}

			confirmer := newConfirmer(rootCmd, tt.assumeYes)
			confirmed, err := confirmer.Confirm(context.Background(), `Reverse "Host rename"?`)
			require.NoError(t, err)
			assert.Equal(t, tt.exp, confirmed)

			if tt.assumeYes {
				assert.Empty(t, out.String())
			} else {
				assert.Contains(t, out.String(), `Reverse "Host rename"? [y/N]:`)
			}
		})
	}
}

package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand_Output(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{
			name: "release build",
			info: BuildInfo{Version: "0.3.1", Commit: "9f2c1ab", Date: "2026-05-04", Go: "go1.24.11"},
			want: "spacelua v0.3.1\ncommit 9f2c1ab, built 2026-05-04 with go1.24.11\n",
		},
		{
			name: "local build",
			info: BuildInfo{Version: "dev", Commit: "none", Date: "unknown", Go: "go1.24.11"},
			want: "spacelua vdev\ncommit none, built unknown with go1.24.11\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := NewVersionCommand(tt.info)
			cmd.SetOut(&out)
			cmd.SetArgs(nil)
			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestVersionCommand_RejectsArgs(t *testing.T) {
	cmd := NewVersionCommand(BuildInfo{Version: "dev"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}

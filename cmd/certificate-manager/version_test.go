package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestVersionCommand(t *testing.T) {
	tests := []struct {
		name   string
		output string
		check  func(t *testing.T, out string)
	}{
		{
			name:   "plain",
			output: "plain",
			check: func(t *testing.T, out string) {
				assert.Equal(t, "dev (built: unknown commit: none)\n", out)
			},
		},
		{
			name:   "json",
			output: "json",
			check: func(t *testing.T, out string) {
				var info VersionInfo
				require.NoError(t, json.Unmarshal([]byte(out), &info))
				assert.Equal(t, VersionInfo{Version: "dev", Commit: "none", Date: "unknown"}, info)
			},
		},
		{
			name:   "yaml",
			output: "yaml",
			check: func(t *testing.T, out string) {
				var info VersionInfo
				require.NoError(t, yaml.Unmarshal([]byte(out), &info))
				assert.Equal(t, "dev", info.Version)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs([]string{"version", "-o", tt.output})
			defer func() {
				rootCmd.SetOut(nil)
				rootCmd.SetArgs(nil)
			}()

			require.NoError(t, rootCmd.Execute())
			tt.check(t, out.String())
		})
	}
}

func TestCompletionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	}()

	rootCmd.SetArgs([]string{"completion", "bash"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "certificate-manager")

	assert.NotContains(t, out.String(), "__completeNoDesc")

	rootCmd.SetArgs([]string{"completion", "tcsh"})
	assert.Error(t, rootCmd.Execute())
}

func TestCompletionWithoutDescriptions(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		completionNoDescriptions = false
	}()

	for _, shell := range []string{"bash", "fish"} {
		out.Reset()
		rootCmd.SetArgs([]string{"completion", shell, "--no-descriptions"})
		require.NoError(t, rootCmd.Execute())
		assert.Contains(t, out.String(), "__completeNoDesc", shell)
	}
}

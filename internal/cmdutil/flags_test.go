package cmdutil

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringEnumFlag(t *testing.T) {
	var policy string
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	StringEnumFlag(cmd, &policy, "policy", "", "pull-if-missing",
		[]string{"pull-if-missing", "always-pull"}, "Image policy")

	require.NoError(t, cmd.Flags().Parse([]string{"--policy", "always-pull"}))
	assert.Equal(t, "always-pull", policy)
}

func TestStringEnumFlagDefault(t *testing.T) {
	var policy string
	cmd := &cobra.Command{Use: "test"}
	StringEnumFlag(cmd, &policy, "policy", "", "pull-if-missing",
		[]string{"pull-if-missing", "always-pull"}, "Image policy")

	require.NoError(t, cmd.Flags().Parse(nil))
	assert.Equal(t, "pull-if-missing", policy)
}

func TestStringEnumFlagRejectsUnknown(t *testing.T) {
	var policy string
	cmd := &cobra.Command{Use: "test"}
	StringEnumFlag(cmd, &policy, "policy", "", "",
		[]string{"pull-if-missing", "always-pull"}, "Image policy")

	err := cmd.Flags().Parse([]string{"--policy", "sometimes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid values")
}

func TestFlagErrorf(t *testing.T) {
	err := FlagErrorf("unknown service %q", "oracle")

	var flagErr *FlagError
	require.ErrorAs(t, err, &flagErr)
	assert.Contains(t, err.Error(), "oracle")
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 3}
	assert.Equal(t, "exit status 3", err.Error())
}

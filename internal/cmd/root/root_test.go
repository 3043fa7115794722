package root

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/berth/internal/cmdutil"
	"github.com/schmitthub/berth/internal/config"
	"github.com/schmitthub/berth/internal/logger"
)

func testFactory() *cmdutil.Factory {
	return &cmdutil.Factory{
		Version: "1.2.3",
		Config: func() (*config.Config, error) {
			return config.DefaultConfig(), nil
		},
	}
}

func TestRootHasSubcommands(t *testing.T) {
	cmd := NewCmdRoot(testFactory(), "1.2.3", "")

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["list"])
	assert.True(t, names["version"])
}

func TestRootVersionFlag(t *testing.T) {
	t.Setenv("BERTH_HOME", t.TempDir())
	defer logger.CloseFileWriter()

	cmd := NewCmdRoot(testFactory(), "1.2.3", "2026-08-24")

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "berth version 1.2.3")
	assert.Contains(t, out.String(), "2026-08-24")
}

func TestRootListExecutes(t *testing.T) {
	t.Setenv("BERTH_HOME", t.TempDir())
	defer logger.CloseFileWriter()

	cmd := NewCmdRoot(testFactory(), "1.2.3", "")

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"list"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "couchdb")
}

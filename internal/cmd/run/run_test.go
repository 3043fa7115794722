package run

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/berth/internal/cmdutil"
	"github.com/schmitthub/berth/internal/config"
	"github.com/schmitthub/berth/pkg/berth"
)

func testFactory() *cmdutil.Factory {
	return &cmdutil.Factory{
		Config: func() (*config.Config, error) {
			return config.DefaultConfig(), nil
		},
	}
}

func execute(t *testing.T, f *cmdutil.Factory, args ...string) error {
	t.Helper()
	cmd := NewCmdRun(f)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestRunUnknownService(t *testing.T) {
	err := execute(t, testFactory(), "oracle")
	require.Error(t, err)

	var flagErr *cmdutil.FlagError
	require.ErrorAs(t, err, &flagErr)
	assert.Contains(t, err.Error(), "oracle")
}

func TestRunExtraArgsWithoutDash(t *testing.T) {
	err := execute(t, testFactory(), "couchdb", "pytest")
	require.Error(t, err)

	var flagErr *cmdutil.FlagError
	require.ErrorAs(t, err, &flagErr)
	assert.Contains(t, err.Error(), "--")
}

func TestRunInvalidPolicy(t *testing.T) {
	err := execute(t, testFactory(), "couchdb", "--policy", "sometimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid values")
}

func TestRunConfigError(t *testing.T) {
	f := &cmdutil.Factory{
		Config: func() (*config.Config, error) {
			return nil, errors.New("bad config")
		},
	}

	err := execute(t, f, "couchdb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad config")
}

func TestServiceEnv(t *testing.T) {
	svc := &berth.Service{
		Name:   "couchdb",
		Host:   "127.0.0.1",
		Port:   49152,
		Scheme: "http",
		Credentials: &berth.Credentials{
			User:     "admin",
			Password: "secret",
		},
	}

	env := serviceEnv(svc)
	assert.Contains(t, env, "BERTH_URL=http://127.0.0.1:49152")
	assert.Contains(t, env, "BERTH_HOST=127.0.0.1")
	assert.Contains(t, env, "BERTH_PORT=49152")
	assert.Contains(t, env, "BERTH_USER=admin")
	assert.Contains(t, env, "BERTH_PASSWORD=secret")
}

func TestServiceEnvNoCredentials(t *testing.T) {
	svc := &berth.Service{Name: "redis", Host: "127.0.0.1", Port: 49200, Scheme: "redis"}

	env := serviceEnv(svc)
	assert.Len(t, env, 3)
	for _, e := range env {
		assert.NotContains(t, e, "BERTH_USER")
		assert.NotContains(t, e, "BERTH_PASSWORD")
	}
}

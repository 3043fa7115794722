// Package engine implements the berth.Runtime boundary over the Docker SDK.
// It wraps the Docker client with label-based resource isolation: every
// container and image it creates carries a managed label, and teardown only
// ever touches resources carrying it.
package engine

import (
	"context"
	"errors"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/client"

	"github.com/schmitthub/berth/pkg/berth"
)

// DefaultLabelPrefix is the label namespace for berth-managed resources.
const DefaultLabelPrefix = "dev.berth"

// DefaultManagedLabel is the label suffix marking resources as managed.
const DefaultManagedLabel = "managed"

// Options configures the Engine.
type Options struct {
	// LabelPrefix is the prefix for all managed labels. Defaults to
	// DefaultLabelPrefix.
	LabelPrefix string

	// ManagedLabel is combined with LabelPrefix to form the full managed
	// key, e.g. "dev.berth.managed=true". Defaults to DefaultManagedLabel.
	ManagedLabel string

	// Labels are extra labels applied to every created resource.
	Labels map[string]string

	// StopTimeoutSeconds is how long a container gets to stop gracefully
	// before the runtime kills it. Defaults to 10.
	StopTimeoutSeconds int
}

// Engine is the Docker-backed berth.Runtime.
type Engine struct {
	cli  *client.Client
	opts Options

	managedLabelKey   string
	managedLabelValue string
}

var _ berth.Runtime = (*Engine)(nil)

// New connects to the Docker daemon and verifies the connection.
func New(ctx context.Context, opts Options) (*Engine, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, ErrDaemonUnreachable(err)
	}

	if opts.LabelPrefix == "" {
		opts.LabelPrefix = DefaultLabelPrefix
	}
	if opts.ManagedLabel == "" {
		opts.ManagedLabel = DefaultManagedLabel
	}
	if opts.StopTimeoutSeconds <= 0 {
		opts.StopTimeoutSeconds = 10
	}

	e := &Engine{
		cli:               cli,
		opts:              opts,
		managedLabelKey:   opts.LabelPrefix + "." + opts.ManagedLabel,
		managedLabelValue: "true",
	}

	if err := e.HealthCheck(ctx); err != nil {
		cli.Close()
		return nil, err
	}
	return e, nil
}

// HealthCheck verifies the Docker daemon is reachable.
func (e *Engine) HealthCheck(ctx context.Context) error {
	if _, err := e.cli.Ping(ctx); err != nil {
		return ErrDaemonUnreachable(err)
	}
	return nil
}

// Close releases Docker client resources.
func (e *Engine) Close() error {
	return e.cli.Close()
}

// ManagedLabelKey returns the full managed label key.
func (e *Engine) ManagedLabelKey() string {
	return e.managedLabelKey
}

// resourceLabels returns the labels applied to created resources.
func (e *Engine) resourceLabels() map[string]string {
	return MergeLabels(
		map[string]string{e.managedLabelKey: e.managedLabelValue},
		e.opts.Labels,
	)
}

// isNotFound reports whether err means the resource no longer exists.
// Docker SDK errors satisfy the errdefs contract; the string check covers
// wrapped errors that lost it.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if cerrdefs.IsNotFound(err) {
		return true
	}
	var ee *EngineError
	if errors.As(err, &ee) && ee.Err != nil {
		err = ee.Err
	}
	msg := err.Error()
	return strings.Contains(msg, "not found") || strings.Contains(msg, "No such")
}

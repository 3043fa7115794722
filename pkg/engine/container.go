package engine

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"

	"github.com/schmitthub/berth/pkg/berth"
)

// CreateAndStart creates and starts a container with the service port
// published on an ephemeral loopback host port. On error the returned
// handle is non-empty when a container was created and must be removed.
func (e *Engine) CreateAndStart(ctx context.Context, spec berth.ContainerSpec) (berth.Handle, error) {
	port, err := nat.NewPort("tcp", strconv.Itoa(spec.Port))
	if err != nil {
		return "", ErrContainerCreateFailed(err)
	}

	config := &container.Config{
		Image:        spec.Image,
		Cmd:          spec.Cmd,
		Env:          spec.Env,
		Labels:       e.resourceLabels(),
		ExposedPorts: nat.PortSet{port: struct{}{}},
	}
	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			// Empty HostPort asks the daemon for an ephemeral port.
			port: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: ""}},
		},
	}

	resp, err := e.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, spec.Name)
	if err != nil {
		return "", ErrContainerCreateFailed(err)
	}
	h := berth.Handle(resp.ID)

	if err := e.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return h, ErrContainerStartFailed(spec.Name, err)
	}
	return h, nil
}

// Endpoint resolves the host-side address of a mapped container port.
func (e *Engine) Endpoint(ctx context.Context, h berth.Handle, containerPort int) (string, int, error) {
	info, err := e.cli.ContainerInspect(ctx, string(h))
	if err != nil {
		return "", 0, ErrContainerInspectFailed(string(h), err)
	}

	port := nat.Port(fmt.Sprintf("%d/tcp", containerPort))
	if info.NetworkSettings == nil {
		return "", 0, ErrEndpointUnresolved(string(h), containerPort)
	}
	bindings := info.NetworkSettings.Ports[port]
	if len(bindings) == 0 || bindings[0].HostPort == "" {
		return "", 0, ErrEndpointUnresolved(string(h), containerPort)
	}

	hostPort, err := strconv.Atoi(bindings[0].HostPort)
	if err != nil {
		return "", 0, ErrEndpointUnresolved(string(h), containerPort)
	}
	return endpointHost(bindings[0].HostIP), hostPort, nil
}

// endpointHost maps a binding address to something dialable from tests.
func endpointHost(hostIP string) string {
	switch hostIP {
	case "", "0.0.0.0", "::":
		return "127.0.0.1"
	default:
		return hostIP
	}
}

// LogsSince returns the container's accumulated output after cursor. The
// cursor is a byte offset into the (append-only) log stream, so callers
// never see already-delivered content again, and partial lines split across
// polls arrive exactly once.
func (e *Engine) LogsSince(ctx context.Context, h berth.Handle, cursor string) ([]byte, string, error) {
	offset := 0
	if cursor != "" {
		var err error
		if offset, err = strconv.Atoi(cursor); err != nil {
			return nil, cursor, fmt.Errorf("invalid log cursor %q: %w", cursor, err)
		}
	}

	rc, err := e.cli.ContainerLogs(ctx, string(h), container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return nil, cursor, ErrContainerLogsFailed(string(h), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, cursor, ErrContainerLogsFailed(string(h), err)
	}
	if offset > len(data) {
		offset = len(data)
	}
	return data[offset:], strconv.Itoa(len(data)), nil
}

// Stop stops the container. Already-stopped and already-removed containers
// are not errors.
func (e *Engine) Stop(ctx context.Context, h berth.Handle) error {
	timeout := e.opts.StopTimeoutSeconds
	err := e.cli.ContainerStop(ctx, string(h), container.StopOptions{Timeout: &timeout})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// Remove force-removes the container. An already-removed container is not
// an error, making teardown idempotent.
func (e *Engine) Remove(ctx context.Context, h berth.Handle) error {
	err := e.cli.ContainerRemove(ctx, string(h), container.RemoveOptions{Force: true})
	if err != nil && !isNotFound(err) {
		return ErrContainerRemoveFailed(string(h), err)
	}
	return nil
}

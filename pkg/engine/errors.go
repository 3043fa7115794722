package engine

import (
	"fmt"
	"strings"
)

// EngineError is a user-facing runtime error with remediation steps. It
// wraps the underlying Docker SDK error with context and actionable
// guidance.
type EngineError struct {
	Op        string   // operation that failed ("connect", "pull", "start", ...)
	Err       error    // underlying error
	Message   string   // human-readable message
	NextSteps []string // suggested remediation steps
}

func (e *EngineError) Error() string {
	return e.Message
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// FormatUserError formats the error for display with next steps.
func (e *EngineError) FormatUserError() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", e.Message))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf("  Details: %s\n", e.Err.Error()))
	}
	if len(e.NextSteps) > 0 {
		sb.WriteString("\nNext Steps:\n")
		for i, step := range e.NextSteps {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}
	return sb.String()
}

// ErrDaemonUnreachable returns an error for when the Docker daemon is not
// accessible.
func ErrDaemonUnreachable(err error) *EngineError {
	return &EngineError{
		Op:      "connect",
		Err:     err,
		Message: "Cannot connect to Docker daemon",
		NextSteps: []string{
			"Ensure Docker is installed and running",
			"Check if the Docker socket is accessible: ls -la /var/run/docker.sock",
			"Verify your user is in the docker group: groups $USER",
		},
	}
}

// ErrImagePullFailed returns an error for a failed image pull.
func ErrImagePullFailed(image string, err error) *EngineError {
	return &EngineError{
		Op:      "pull",
		Err:     err,
		Message: fmt.Sprintf("Failed to pull image '%s'", image),
		NextSteps: []string{
			"Check the image name and tag are correct",
			"Verify you have network access to the registry",
			"Try pulling manually: docker pull " + image,
		},
	}
}

// ErrImageNotFoundLocally returns an error for the local-only policy when
// the image is absent.
func ErrImageNotFoundLocally(image string) *EngineError {
	return &EngineError{
		Op:      "resolve",
		Message: fmt.Sprintf("Image '%s' not present locally (local-only policy)", image),
		NextSteps: []string{
			"Pull the image beforehand: docker pull " + image,
			"Or switch the image policy to pull-if-missing",
		},
	}
}

// ErrImageBuildFailed returns an error for a failed image build.
func ErrImageBuildFailed(err error) *EngineError {
	return &EngineError{
		Op:      "build",
		Err:     err,
		Message: "Failed to build service image",
		NextSteps: []string{
			"Check the Dockerfile syntax",
			"Review the build output for specific errors",
		},
	}
}

// ErrContainerCreateFailed returns an error for failed container creation.
func ErrContainerCreateFailed(err error) *EngineError {
	return &EngineError{
		Op:      "create",
		Err:     err,
		Message: "Failed to create container",
		NextSteps: []string{
			"Check if the image exists",
			"Check for conflicting container names",
			"Review Docker daemon logs for details",
		},
	}
}

// ErrContainerStartFailed returns an error for when a container fails to start.
func ErrContainerStartFailed(name string, err error) *EngineError {
	return &EngineError{
		Op:      "start",
		Err:     err,
		Message: fmt.Sprintf("Failed to start container '%s'", name),
		NextSteps: []string{
			"Check container logs: docker logs " + name,
			"Check for port conflicts",
		},
	}
}

// ErrContainerRemoveFailed returns an error for failed container removal.
func ErrContainerRemoveFailed(name string, err error) *EngineError {
	return &EngineError{
		Op:      "remove",
		Err:     err,
		Message: fmt.Sprintf("Failed to remove container '%s'", name),
		NextSteps: []string{
			"Check if the container exists: docker ps -a",
			"Review Docker daemon logs for details",
		},
	}
}

// ErrContainerInspectFailed returns an error for when inspection fails.
func ErrContainerInspectFailed(name string, err error) *EngineError {
	return &EngineError{
		Op:      "inspect",
		Err:     err,
		Message: fmt.Sprintf("Failed to inspect container '%s'", name),
		NextSteps: []string{
			"Check if the container exists: docker ps -a",
			"Verify Docker daemon is running",
		},
	}
}

// ErrContainerLogsFailed returns an error for when fetching logs fails.
func ErrContainerLogsFailed(name string, err error) *EngineError {
	return &EngineError{
		Op:      "logs",
		Err:     err,
		Message: fmt.Sprintf("Failed to get logs for container '%s'", name),
		NextSteps: []string{
			"Check if the container exists: docker ps -a",
		},
	}
}

// ErrEndpointUnresolved returns an error for when a container port has no
// host binding yet.
func ErrEndpointUnresolved(name string, port int) *EngineError {
	return &EngineError{
		Op:      "endpoint",
		Message: fmt.Sprintf("Container '%s' has no host binding for port %d", name, port),
		NextSteps: []string{
			"Verify the service definition exposes the right port",
			"Inspect the container: docker inspect " + name,
		},
	}
}

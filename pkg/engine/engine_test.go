package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found string", errors.New("container xyz not found"), true},
		{"no such string", errors.New("Error: No such container: xyz"), true},
		{"wrapped in engine error", ErrContainerRemoveFailed("xyz", errors.New("not found")), true},
		{"unrelated", errors.New("permission denied"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNotFound(tt.err))
		})
	}
}

func TestMergeLabels(t *testing.T) {
	merged := MergeLabels(
		map[string]string{"a": "1", "b": "2"},
		map[string]string{"b": "3", "c": "4"},
		nil,
	)
	assert.Equal(t, map[string]string{"a": "1", "b": "3", "c": "4"}, merged)
}

func TestMergeLabelsEmpty(t *testing.T) {
	assert.Empty(t, MergeLabels())
	assert.NotNil(t, MergeLabels())
}

func TestEndpointHost(t *testing.T) {
	assert.Equal(t, "127.0.0.1", endpointHost(""))
	assert.Equal(t, "127.0.0.1", endpointHost("0.0.0.0"))
	assert.Equal(t, "127.0.0.1", endpointHost("::"))
	assert.Equal(t, "192.168.1.5", endpointHost("192.168.1.5"))
}

func TestFormatUserError(t *testing.T) {
	err := ErrImagePullFailed("couchdb:latest", errors.New("network unreachable"))

	out := err.FormatUserError()
	assert.Contains(t, out, "Failed to pull image 'couchdb:latest'")
	assert.Contains(t, out, "network unreachable")
	assert.Contains(t, out, "Next Steps:")
	assert.Contains(t, out, "docker pull couchdb:latest")
}

func TestFormatUserErrorNoDetails(t *testing.T) {
	err := ErrImageNotFoundLocally("redis")

	out := err.FormatUserError()
	assert.Contains(t, out, "not present locally")
	assert.NotContains(t, out, "Details:")
}

func TestEngineErrorUnwrap(t *testing.T) {
	inner := errors.New("socket closed")
	err := ErrDaemonUnreachable(inner)

	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "connect", err.Op)
}

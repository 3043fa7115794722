package engine

import (
	"archive/tar"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDockerfileContext(t *testing.T) {
	content := "FROM couchdb\nEXPOSE 5984\n"

	r, err := dockerfileContext(content)
	require.NoError(t, err)

	tr := tar.NewReader(r)
	hdr, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "Dockerfile", hdr.Name)

	data, err := io.ReadAll(tr)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	_, err = tr.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDockerfileContextEmpty(t *testing.T) {
	_, err := dockerfileContext("")
	require.Error(t, err)
}

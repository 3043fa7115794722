package engine

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/google/uuid"

	"github.com/schmitthub/berth/pkg/berth"
)

// ResolveImage makes the requested image available per the policy and
// returns the reference to run.
func (e *Engine) ResolveImage(ctx context.Context, spec berth.ImageSpec) (string, error) {
	switch spec.Policy {
	case berth.BuildImage:
		return e.buildImage(ctx, spec)

	case berth.AlwaysPull:
		if err := e.pull(ctx, spec.Ref); err != nil {
			return "", err
		}
		return spec.Ref, nil

	case berth.LocalOnly:
		exists, err := e.imageExists(ctx, spec.Ref)
		if err != nil {
			return "", err
		}
		if !exists {
			return "", ErrImageNotFoundLocally(spec.Ref)
		}
		return spec.Ref, nil

	default: // berth.PullIfMissing
		exists, err := e.imageExists(ctx, spec.Ref)
		if err != nil {
			return "", err
		}
		if !exists {
			if err := e.pull(ctx, spec.Ref); err != nil {
				return "", err
			}
		}
		return spec.Ref, nil
	}
}

// imageExists checks if an image is present locally.
func (e *Engine) imageExists(ctx context.Context, ref string) (bool, error) {
	_, _, err := e.cli.ImageInspectWithRaw(ctx, ref)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// pull pulls an image and drains the progress stream.
func (e *Engine) pull(ctx context.Context, ref string) error {
	rc, err := e.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return ErrImagePullFailed(ref, err)
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return ErrImagePullFailed(ref, err)
	}
	return nil
}

// buildImage builds an image from the in-memory Dockerfile in the spec and
// returns the tag applied to it.
func (e *Engine) buildImage(ctx context.Context, spec berth.ImageSpec) (string, error) {
	tag := spec.Ref
	if tag == "" {
		tag = "berth-build:" + uuid.NewString()[:8]
	}

	buildCtx, err := dockerfileContext(spec.Dockerfile)
	if err != nil {
		return "", ErrImageBuildFailed(err)
	}

	resp, err := e.cli.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{tag},
		Dockerfile: "Dockerfile",
		Remove:     true,
		Labels:     e.resourceLabels(),
	})
	if err != nil {
		return "", ErrImageBuildFailed(err)
	}
	defer resp.Body.Close()

	// The build stream reports failures as JSON messages, not as an error
	// return; scan for them.
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		var msg struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Error != "" {
			return "", ErrImageBuildFailed(errors.New(msg.Error))
		}
	}
	if err := scanner.Err(); err != nil {
		return "", ErrImageBuildFailed(err)
	}
	return tag, nil
}

// dockerfileContext wraps Dockerfile content into a tar build context.
func dockerfileContext(dockerfile string) (io.Reader, error) {
	if dockerfile == "" {
		return nil, fmt.Errorf("empty build definition")
	}
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	hdr := &tar.Header{
		Name: "Dockerfile",
		Mode: 0o644,
		Size: int64(len(dockerfile)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, err
	}
	if _, err := tw.Write([]byte(dockerfile)); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}

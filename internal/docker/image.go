// image.go implements image-level operations: existence checks via the
// SDK and builds via the docker CLI.
//
// Builds shell out to "docker build" rather than using the SDK's
// ImageBuild endpoint because a Gentoo image build compiles packages for
// many minutes — users need the live progress stream on their terminal,
// and the CLI renders it exactly as they expect.
package docker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/sirupsen/logrus"

	"github.com/aahsnr/development/internal/model"
)

// ImageExists reports whether an image with the given tag is present
// locally. The reference filter makes the daemon do the matching.
func ImageExists(ctx context.Context, cli *Client, tag string) (bool, error) {
	images, err := cli.Inner().ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", tag)),
	})
	if err != nil {
		return false, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to query images for %q", tag),
			err,
		)
	}
	return len(images) > 0, nil
}

// BuildImage runs "docker build -t <tag> <contextDir>", streaming build
// output to the user's terminal. The context directory is prepared by the
// recipe package (Dockerfile plus portage configuration files).
//
// Returns a CLIError with ExitBuildFailed when the build exits non-zero.
// Cancellation of ctx kills the build process.
func BuildImage(ctx context.Context, contextDir, tag string) error {
	logrus.Debugf("building image %s from context %s", tag, contextDir)

	cmd := exec.CommandContext(ctx, "docker", "build", "-t", tag, contextDir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(
			model.ExitBuildFailed,
			fmt.Sprintf("docker build failed for image %q", tag),
			err,
		)
	}
	return nil
}

// RemoveImage deletes a local image by tag via the SDK. Dangling parent
// layers are pruned along with it.
func RemoveImage(ctx context.Context, cli *Client, tag string) error {
	_, err := cli.Inner().ImageRemove(ctx, tag, image.RemoveOptions{PruneChildren: true})
	if err != nil {
		// An already-absent image is fine for the down --image path.
		if strings.Contains(err.Error(), "No such image") {
			logrus.Debugf("image %s already absent", tag)
			return nil
		}
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove image %q", tag),
			err,
		)
	}
	return nil
}

// ListEnvironmentImages returns local image tags in the devenv/ repository
// namespace for the given environment name. Used by "down --image" to
// clean superseded tags left behind by recipe changes.
func ListEnvironmentImages(ctx context.Context, cli *Client, envName string) ([]string, error) {
	images, err := cli.Inner().ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", "devenv/"+envName)),
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to list images for environment %q", envName),
			err,
		)
	}

	var tags []string
	for _, img := range images {
		tags = append(tags, img.RepoTags...)
	}
	return tags, nil
}

// up.go implements "devenv up", the directory-entry operation the shell
// hooks call. It is idempotent:
//
//   - image absent       → build it (content-addressed tag)
//   - container absent   → create and start it
//   - container stopped  → start it
//   - container running  → no-op
//
// A running or stopped container created from an older recipe hash is left
// alone with a warning; --recreate replaces it with one built from the
// current tag.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aahsnr/development/internal/docker"
	"github.com/aahsnr/development/internal/model"
)

// upFlags holds the flag values for the up command.
type upFlags struct {
	quiet    bool // --quiet: no output on success (hook-friendly)
	recreate bool // --recreate: replace a container built from a stale recipe
}

// NewUpCommand creates the "up" cobra command.
func NewUpCommand() *cobra.Command {
	flags := &upFlags{}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Build (if needed) and start the environment for this project",
		Long: `Bring up the development environment for the current directory.

Builds the project image when no image with the current recipe hash
exists, then creates or starts the environment container. Safe to run
repeatedly; a running environment is left untouched.

Examples:
  devenv up
  devenv up --quiet       # used by the generated shell hooks
  devenv up --recreate    # replace the container after a recipe change`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Suppress output on success")
	cmd.Flags().BoolVar(&flags.recreate, "recreate", false, "Replace the container if it was created from an older recipe")

	return cmd
}

// runUp is the orchestration for the up command.
func runUp(ctx context.Context, flags *upFlags) error {
	pc, err := loadProjectContext()
	if err != nil {
		return err
	}

	cli, err := pc.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	// Step 1: image. The tag encodes the recipe hash, so "absent" also
	// means "recipe changed since the last build".
	built, err := pc.ensureImage(ctx, cli, false)
	if err != nil {
		return err
	}

	// Step 2: container.
	info, err := pc.findOwnContainer(ctx, cli)
	if err != nil {
		return err
	}

	action := "unchanged"
	switch {
	case info == nil:
		if err := pc.createContainer(ctx); err != nil {
			return err
		}
		action = "created"

	case info.Labels[docker.LabelImage] != pc.Tag && flags.recreate:
		logrus.Debugf("recreating container %s (stale image %s)", info.ContainerName, info.Labels[docker.LabelImage])
		if err := docker.RemoveContainer(ctx, cli, info.ContainerID, true); err != nil {
			return err
		}
		if err := pc.createContainer(ctx); err != nil {
			return err
		}
		action = "recreated"

	case info.State == "running":
		if info.Labels[docker.LabelImage] != pc.Tag {
			logrus.Warnf("environment %q is running an image built from an older recipe; run \"devenv up --recreate\"", pc.EnvName)
		}

	default:
		if err := docker.StartContainer(ctx, cli, info.ContainerID); err != nil {
			return err
		}
		action = "started"
		if info.Labels[docker.LabelImage] != pc.Tag {
			logrus.Warnf("environment %q was created from an older recipe; run \"devenv up --recreate\"", pc.EnvName)
		}
	}

	if flags.quiet {
		return nil
	}
	printUpResult(pc, action, built)
	return nil
}

// createContainer materializes the environment: resolves mounts and env
// from the manifest and runs the container with the full label set.
func (pc *projectContext) createContainer(ctx context.Context) error {
	mounts, err := pc.Manifest.ResolveMounts(pc.Dir, pc.Workdir)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid mounts", err)
	}

	extraEnv, err := pc.Manifest.CollectEnv(pc.Dir)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to collect container environment", err)
	}

	env := &model.Environment{
		Name:        pc.EnvName,
		ProjectPath: pc.Dir,
		ImageTag:    pc.Tag,
		Shell:       pc.Shell,
		Mounts:      mounts,
		Ports:       pc.Manifest.Ports,
		CreatedAt:   time.Now().UTC(),
	}

	return docker.RunContainer(ctx, env, pc.Workdir, extraEnv)
}

// printUpResult reports what up did, in text or JSON.
func printUpResult(pc *projectContext, action string, built bool) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"name":       pc.EnvName,
			"container":  "devenv-" + pc.EnvName,
			"image":      pc.Tag,
			"action":     action,
			"imageBuilt": built,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if built {
		fmt.Printf("Built image %s\n", pc.Tag)
	}
	switch action {
	case "created", "recreated", "started":
		fmt.Printf("Environment %q is up (%s). Run \"devenv enter\" for a shell.\n", pc.EnvName, action)
	default:
		fmt.Printf("Environment %q is already running.\n", pc.EnvName)
	}
}

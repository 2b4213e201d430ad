// down.go implements "devenv down", the directory-exit operation the
// shell hooks call: stop the environment's container and remove it.
// The global keep_stopped setting downgrades removal to a plain stop.
package cli

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aahsnr/development/internal/docker"
)

// downFlags holds the flag values for the down command.
type downFlags struct {
	quiet       bool // --quiet: no output on success (hook-friendly)
	force       bool // --force: kill instead of graceful stop
	removeImage bool // --image: also remove the environment's images
}

// NewDownCommand creates the "down" cobra command.
func NewDownCommand() *cobra.Command {
	flags := &downFlags{}

	cmd := &cobra.Command{
		Use:   "down [name]",
		Short: "Stop and remove an environment",
		Long: `Tear down an environment: stop its container and remove it.

Without an argument, the environment of the current directory is torn
down. With teardown.keep_stopped set in the global config, the container
is stopped but kept, which makes the next "devenv up" faster at the cost
of disk space. This also works on orphaned environments whose project
directory no longer exists.

Examples:
  devenv down
  devenv down myproject
  devenv down --image        # also remove the built images
  devenv down --force        # kill instead of graceful stop`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return runDown(cmd.Context(), name, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Suppress output on success")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Kill the container instead of stopping gracefully")
	cmd.Flags().BoolVar(&flags.removeImage, "image", false, "Also remove the environment's images")

	return cmd
}

func runDown(ctx context.Context, envName string, flags *downFlags) error {
	cli, env, cfg, err := resolveTarget(ctx, envName)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	keep := cfg.Teardown.KeepStopped && !flags.removeImage

	if flags.force {
		// Force removal kills a running container in one daemon call.
		if err := docker.RemoveContainer(ctx, cli, env.Container.ContainerID, true); err != nil {
			return err
		}
	} else {
		if env.Container.State == "running" {
			if err := docker.StopContainer(ctx, cli, env.Container.ContainerID); err != nil {
				return err
			}
			if err := docker.WaitStopped(ctx, cli, env.Container.ContainerID, 200*time.Millisecond); err != nil {
				return err
			}
		}
		if !keep {
			if err := docker.RemoveContainer(ctx, cli, env.Container.ContainerID, false); err != nil {
				return err
			}
		}
	}

	if flags.removeImage {
		tags, err := docker.ListEnvironmentImages(ctx, cli, env.Name)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			logrus.Debugf("removing image %s", tag)
			if err := docker.RemoveImage(ctx, cli, tag); err != nil {
				return err
			}
		}
	}

	if flags.quiet {
		return nil
	}
	action := "removed"
	if keep && !flags.force {
		action = "stopped"
	}
	return reportLifecycle(env.Name, action)
}

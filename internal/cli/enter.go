// enter.go implements "devenv enter": a login shell (or one-off command)
// inside the environment container. This is the command the original
// entry alias maps to.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aahsnr/development/internal/docker"
	"github.com/aahsnr/development/internal/model"
)

// NewEnterCommand creates the "enter" cobra command.
func NewEnterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enter [-- command [args...]]",
		Short: "Open a shell in the project's environment",
		Long: `Open an interactive login shell inside the environment container for
the current directory, or run a one-off command in it.

With a terminal attached and no command given, the devenv process is
replaced by docker exec, so signals and exit status come straight from
the in-container shell.

Examples:
  devenv enter
  devenv enter -- python -m pytest
  devenv enter -- emerge --info`,

		// Everything after "--" is the command to run.
		Args: cobra.ArbitraryArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnter(cmd.Context(), args)
		},
	}

	return cmd
}

func runEnter(ctx context.Context, command []string) error {
	pc, err := loadProjectContext()
	if err != nil {
		return err
	}

	cli, err := pc.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	info, err := pc.findOwnContainer(ctx, cli)
	if err != nil {
		return err
	}
	if info == nil || info.State != "running" {
		return model.NewCLIError(model.ExitEnvNotFound,
			fmt.Sprintf("environment %q is not running — run \"devenv up\" first", pc.EnvName))
	}

	// The client is closed before the exec handoff; on the interactive
	// path ExecShell replaces this process and never returns.
	_ = cli.Close()

	return docker.ExecShell(docker.ExecOptions{
		ContainerName: info.ContainerName,
		Shell:         pc.Shell,
		Workdir:       pc.Workdir,
		Command:       command,
	})
}

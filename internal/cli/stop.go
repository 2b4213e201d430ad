// stop.go implements "devenv stop": stop an environment's container
// without removing it, so re-entry is fast.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aahsnr/development/internal/config"
	"github.com/aahsnr/development/internal/docker"
	"github.com/aahsnr/development/internal/model"
)

// NewStopCommand creates the "stop" cobra command.
func NewStopCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop [name]",
		Short: "Stop an environment",
		Long: `Stop the environment's container without removing it.

Without an argument, the environment of the current directory is stopped.
The container and its filesystem are preserved; "devenv up" restarts it.

Examples:
  devenv stop
  devenv stop myproject`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return runStop(cmd.Context(), name)
		},
	}

	return cmd
}

func runStop(ctx context.Context, envName string) error {
	cli, env, _, err := resolveTarget(ctx, envName)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if env.Container.State != "running" {
		return reportLifecycle(env.Name, "already-stopped")
	}

	if err := docker.StopContainer(ctx, cli, env.Container.ContainerID); err != nil {
		return err
	}
	return reportLifecycle(env.Name, "stopped")
}

// resolveTarget finds the environment a lifecycle command operates on:
// the named one, or the current directory's when name is empty. Unlike
// loadProjectContext this works entirely from Docker labels, so it also
// reaches orphaned environments whose manifest is long gone.
func resolveTarget(ctx context.Context, envName string) (*docker.Client, *model.Environment, *config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, model.WrapCLIError(model.ExitGeneralError, "failed to load configuration", err)
	}

	if envName == "" {
		pc, err := loadProjectContext()
		if err != nil {
			return nil, nil, nil, err
		}
		envName = pc.EnvName
	}

	cli, err := docker.NewClient(cfg.Docker.Host)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, nil, nil, err
	}

	env, err := docker.FindEnvironment(ctx, cli, envName)
	if err != nil {
		_ = cli.Close()
		return nil, nil, nil, err
	}
	return cli, env, cfg, nil
}

// reportLifecycle prints the outcome of a stop/down action.
func reportLifecycle(envName, action string) error {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]string{
			"name":   envName,
			"action": action,
		}, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("Environment %q: %s\n", envName, action)
	return nil
}

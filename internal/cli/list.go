// list.go implements "devenv list": every managed environment on this
// host, rebuilt from container labels, as a table or JSON.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/aahsnr/development/internal/config"
	"github.com/aahsnr/development/internal/docker"
	"github.com/aahsnr/development/internal/model"
)

// listFlags holds the flag values for the list command.
type listFlags struct {
	// status filters by lifecycle state: running, stopped, orphaned, all.
	status string
}

// NewListCommand creates the "list" cobra command.
func NewListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all environments on this host",
		Long: `List every devenv-managed environment, with its status, project path,
image, and published ports. Orphaned environments — ones whose project
directory was deleted — are included so they can be cleaned up with
"devenv down <name>".

Examples:
  devenv list
  devenv list --status running
  devenv list --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.status, "status", "all",
		"Filter by status: running, stopped, orphaned, all")

	return cmd
}

func runList(ctx context.Context, flags *listFlags) error {
	if flags.status != "all" {
		if _, err := model.ParseEnvStatus(flags.status); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid status filter %q: valid values are running, stopped, orphaned, all", flags.status), nil)
		}
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to load configuration", err)
	}

	cli, err := docker.NewClient(cfg.Docker.Host)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	envs, err := docker.ListEnvironments(ctx, cli)
	if err != nil {
		return err
	}

	envs = filterByStatus(envs, flags.status)

	if IsJSONOutput() {
		printListJSON(envs)
		return nil
	}
	printListTable(envs)
	return nil
}

// filterByStatus keeps only environments matching the filter; "all"
// passes everything through.
func filterByStatus(envs []*model.Environment, status string) []*model.Environment {
	if status == "all" {
		return envs
	}
	filtered := make([]*model.Environment, 0, len(envs))
	for _, env := range envs {
		if env.Status.String() == status {
			filtered = append(filtered, env)
		}
	}
	return filtered
}

func printListJSON(envs []*model.Environment) {
	// An empty list marshals as [], not null, for script consumers.
	if envs == nil {
		envs = []*model.Environment{}
	}
	data, _ := json.MarshalIndent(envs, "", "  ")
	fmt.Println(string(data))
}

func printListTable(envs []*model.Environment) {
	if len(envs) == 0 {
		fmt.Println("No environments found.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Status", "Project", "Image", "Ports"})
	table.SetBorder(false)
	for _, env := range envs {
		table.Append(environmentRow(env))
	}
	table.Render()
}

// environmentRow flattens an environment into table cells.
func environmentRow(env *model.Environment) []string {
	ports := make([]string, 0, len(env.Ports))
	for i := range env.Ports {
		ports = append(ports, env.Ports[i].String())
	}
	portCol := strings.Join(ports, ", ")
	if portCol == "" {
		portCol = "-"
	}

	return []string{
		env.Name,
		env.Status.String(),
		env.ProjectPath,
		env.ImageTag,
		portCol,
	}
}

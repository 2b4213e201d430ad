// status.go implements "devenv status": the health of the current
// project's environment — daemon reachability, image presence, container
// state.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/aahsnr/development/internal/docker"
)

// NewStatusCommand creates the "status" cobra command.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of this project's environment",
		Long: `Show the environment for the current directory: the resolved image tag,
whether that image exists locally, and the container state.

Examples:
  devenv status
  devenv status --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}

	return cmd
}

// statusReport is the JSON shape of the status output.
type statusReport struct {
	Name        string `json:"name"`
	ProjectPath string `json:"projectPath"`
	Manifest    string `json:"manifest"`
	Image       string `json:"image"`
	ImageExists bool   `json:"imageExists"`
	Container   string `json:"container"`
	State       string `json:"state"`
}

func runStatus(ctx context.Context) error {
	pc, err := loadProjectContext()
	if err != nil {
		return err
	}

	cli, err := pc.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	imageExists, err := docker.ImageExists(ctx, cli, pc.Tag)
	if err != nil {
		return err
	}

	report := statusReport{
		Name:        pc.EnvName,
		ProjectPath: pc.Dir,
		Manifest:    pc.ManifestPath,
		Image:       pc.Tag,
		ImageExists: imageExists,
		Container:   "devenv-" + pc.EnvName,
		State:       "absent",
	}

	info, err := pc.findOwnContainer(ctx, cli)
	if err != nil {
		return err
	}
	if info != nil {
		report.State = info.State
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	imageNote := "missing (run \"devenv build\")"
	if imageExists {
		imageNote = "present"
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.SetBorder(false)
	table.Append([]string{"Environment", report.Name})
	table.Append([]string{"Project", report.ProjectPath})
	table.Append([]string{"Manifest", report.Manifest})
	table.Append([]string{"Image", report.Image})
	table.Append([]string{"Image status", imageNote})
	table.Append([]string{"Container", report.Container})
	table.Append([]string{"State", report.State})
	table.Render()
	return nil
}

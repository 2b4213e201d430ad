// build.go implements "devenv build": render the recipe and build the
// project image without touching the container. Mostly useful for warming
// the image ahead of "devenv up" or forcing a rebuild.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// buildFlags holds the flag values for the build command.
type buildFlags struct {
	force bool // --force: rebuild even when the tag already exists
}

// NewBuildCommand creates the "build" cobra command.
func NewBuildCommand() *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the project image",
		Long: `Build the Gentoo image for the current project.

The image tag embeds a hash of the rendered recipe (Dockerfile, make.conf,
package lists), so the build is skipped when an image for the current
recipe already exists. Build output streams to the terminal.

Examples:
  devenv build
  devenv build --force`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.force, "force", false, "Rebuild even if the image already exists")

	return cmd
}

func runBuild(ctx context.Context, flags *buildFlags) error {
	pc, err := loadProjectContext()
	if err != nil {
		return err
	}

	cli, err := pc.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	built, err := pc.ensureImage(ctx, cli, flags.force)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]interface{}{
			"name":  pc.EnvName,
			"image": pc.Tag,
			"built": built,
		}, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if built {
		fmt.Printf("Built image %s\n", pc.Tag)
	} else {
		fmt.Printf("Image %s is up to date.\n", pc.Tag)
	}
	return nil
}

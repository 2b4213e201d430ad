// init.go implements "devenv init": scaffold a project with a sample
// manifest and a direnv .envrc wired to the lifecycle commands.
package cli

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aahsnr/development/internal/hook"
	"github.com/aahsnr/development/internal/model"
)

//go:embed templates/devenv.yaml
var sampleManifest []byte

// initFlags holds the flag values for the init command.
type initFlags struct {
	force bool // --force: overwrite existing files
}

// NewInitCommand creates the "init" cobra command.
func NewInitCommand() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a devenv project in the current directory",
		Long: `Create the files a devenv project needs:

  .devenv.yaml   the project manifest (packages, ports, mounts, env)
  .envrc         direnv integration calling "devenv up" on entry

Existing files are left alone unless --force is given.

Examples:
  devenv init
  devenv init --force`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(flags)
		},
	}

	cmd.Flags().BoolVar(&flags.force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(flags *initFlags) error {
	envrc, err := hook.Render("direnv", "devenv")
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to render .envrc", err)
	}

	files := map[string][]byte{
		".devenv.yaml": sampleManifest,
		".envrc":       []byte(envrc),
	}

	// Deterministic order: manifest first, then the hook that reads it.
	for _, name := range []string{".devenv.yaml", ".envrc"} {
		if _, err := os.Stat(name); err == nil && !flags.force {
			fmt.Printf("Skipping %s (already exists, use --force to overwrite)\n", name)
			continue
		}
		if err := os.WriteFile(name, files[name], 0o644); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to write %s", name), err)
		}
		fmt.Printf("Created %s\n", name)
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit .devenv.yaml (packages, ports)")
	fmt.Println("  2. direnv allow        # or: devenv up")
	fmt.Println("  3. devenv enter")
	return nil
}

// hook.go implements "devenv hook": print the shell integration snippet
// for direnv, bash, or zsh. The snippet is everything the tool knows
// about directory changes; devenv itself never watches the filesystem.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aahsnr/development/internal/hook"
	"github.com/aahsnr/development/internal/model"
)

// NewHookCommand creates the "hook" cobra command.
func NewHookCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook <" + strings.Join(hook.Kinds(), "|") + ">",
		Short: "Print the shell integration snippet",
		Long: `Print the integration snippet for a shell or for direnv.

The snippet calls "devenv up" when a directory containing a devenv
manifest is entered and "devenv down" when it is left or the shell
exits.

Examples:
  devenv hook direnv >> .envrc && direnv allow
  eval "$(devenv hook bash)"     # in ~/.bashrc
  eval "$(devenv hook zsh)"      # in ~/.zshrc`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			snippet, err := hook.Render(args[0], "devenv")
			if err != nil {
				return model.WrapCLIError(model.ExitGeneralError, "failed to render hook", err)
			}
			fmt.Print(snippet)
			return nil
		},
	}

	return cmd
}

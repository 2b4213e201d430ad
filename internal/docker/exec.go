// exec.go implements "devenv enter": handing the user's terminal to a
// shell inside the environment container.
package docker

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/aahsnr/development/internal/model"
)

// ExecOptions configures a shell or command execution inside a container.
type ExecOptions struct {
	// ContainerName is the target container ("devenv-<env>").
	ContainerName string

	// Shell is the login shell to start when Command is empty.
	Shell string

	// Workdir sets the working directory inside the container.
	Workdir string

	// Command, when non-empty, is run instead of an interactive shell.
	Command []string
}

// ExecShell runs a shell or command in the container via "docker exec".
//
// Interactive case (no Command, stdin is a TTY): the devenv process is
// replaced by docker exec using execve, so the user's terminal, signals,
// and exit status all belong to the in-container shell with no Go process
// left in between. On success this function does not return.
//
// Non-interactive case: the command runs as a child process with stdio
// passed through, and its exit error is returned.
func ExecShell(opts ExecOptions) error {
	interactive := len(opts.Command) == 0 && term.IsTerminal(int(os.Stdin.Fd()))

	args := []string{"docker", "exec"}
	if interactive {
		args = append(args, "-it")
	}
	if opts.Workdir != "" {
		args = append(args, "-w", opts.Workdir)
	}
	args = append(args, opts.ContainerName)

	if len(opts.Command) > 0 {
		args = append(args, opts.Command...)
	} else {
		shell := opts.Shell
		if shell == "" {
			shell = "/bin/bash"
		}
		// -l makes it a login shell so /etc/profile and ~/.bash_profile
		// run, matching what the user gets from an SSH session.
		args = append(args, shell, "-l")
	}

	dockerPath, err := exec.LookPath("docker")
	if err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning, "docker binary not found in PATH", err)
	}

	if interactive {
		logrus.Debugf("exec handoff: %v", args)
		// Does not return on success: the process image is replaced.
		if err := execReplace(dockerPath, args, os.Environ()); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to exec into container %q", opts.ContainerName), err)
		}
		return nil
	}

	cmd := exec.Command(dockerPath, args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("command failed in container %q", opts.ContainerName), err)
	}
	return nil
}

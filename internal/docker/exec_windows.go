//go:build windows

package docker

import (
	"os"
	"os/exec"
)

// execReplace approximates execve on Windows, which has no process
// replacement: the command runs as a child with stdio attached and the
// parent exits with the child's status.
func execReplace(path string, args []string, env []string) error {
	cmd := exec.Command(path, args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = env
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return err
	}
	os.Exit(0)
	return nil
}

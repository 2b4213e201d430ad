//go:build darwin || linux

package docker

import "syscall"

// execReplace replaces the current process image with a new one.
// Does not return on success.
func execReplace(path string, args []string, env []string) error {
	return syscall.Exec(path, args, env)
}

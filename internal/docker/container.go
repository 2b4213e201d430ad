// container.go implements container lifecycle operations for devenv.
//
// Each environment owns exactly one container, named "devenv-<env>" and
// kept alive with a no-op entrypoint so it can be entered repeatedly.
// Discovery is label-driven: everything with devenv.managed-by=devenv is
// ours, and the remaining devenv.* labels describe the environment.
package docker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/sirupsen/logrus"

	"github.com/aahsnr/development/internal/model"
)

// ListManagedContainers returns every container (running or not) carrying
// the devenv management label. Filtering happens daemon-side via the label
// filter, which is cheaper than listing everything and sieving in Go.
//
// Stopped containers are included because "list", "status", and "down" all
// need to see environments that are not currently running.
func ListManagedContainers(ctx context.Context, cli *Client) ([]model.ContainerInfo, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		result = append(result, containerToInfo(c))
	}
	return result, nil
}

// containerToInfo maps the Docker API container struct onto the domain
// type, decoupling the rest of the tool from SDK types. The API reports
// names with a leading "/" which is stripped for display.
func containerToInfo(c types.Container) model.ContainerInfo {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}
	return model.ContainerInfo{
		ContainerID:   c.ID,
		ContainerName: name,
		State:         c.State,
		Labels:        c.Labels,
	}
}

// FindEnvironment locates the environment with the given name among the
// managed containers and rebuilds it from labels. Returns a CLIError with
// ExitEnvNotFound when no container belongs to that name.
func FindEnvironment(ctx context.Context, cli *Client, envName string) (*model.Environment, error) {
	containers, err := ListManagedContainers(ctx, cli)
	if err != nil {
		return nil, err
	}

	for i := range containers {
		if containers[i].Labels[LabelName] != envName {
			continue
		}
		env, err := BuildEnvironment(containers[i])
		if err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("environment %q has corrupt labels", envName), err)
		}
		return env, nil
	}

	return nil, model.NewCLIError(model.ExitEnvNotFound,
		fmt.Sprintf("environment %q not found — run \"devenv up\" in its project directory", envName))
}

// ListEnvironments rebuilds every managed environment, sorted by name.
// Containers whose labels fail to parse are skipped with a debug log so a
// single corrupt container cannot break "devenv list".
func ListEnvironments(ctx context.Context, cli *Client) ([]*model.Environment, error) {
	containers, err := ListManagedContainers(ctx, cli)
	if err != nil {
		return nil, err
	}

	envs := make([]*model.Environment, 0, len(containers))
	for i := range containers {
		env, err := BuildEnvironment(containers[i])
		if err != nil {
			logrus.Debugf("skipping container %s: %v", containers[i].ContainerName, err)
			continue
		}
		envs = append(envs, env)
	}

	sort.Slice(envs, func(i, j int) bool { return envs[i].Name < envs[j].Name })
	return envs, nil
}

// BuildEnvironment reconstructs an Environment from a single container:
// static metadata from labels, status from live container state and the
// existence of the project directory.
func BuildEnvironment(info model.ContainerInfo) (*model.Environment, error) {
	env, err := ParseLabels(info.Labels)
	if err != nil {
		return nil, err
	}
	c := info
	env.Container = &c
	env.Status = determineStatus(info.State, env.ProjectPath)
	return env, nil
}

// determineStatus derives the environment lifecycle state. Orphan detection
// takes priority: once the project directory is gone the container state no
// longer matters, the environment only exists to be cleaned up.
func determineStatus(containerState, projectPath string) model.EnvStatus {
	if _, err := os.Stat(projectPath); os.IsNotExist(err) {
		return model.StatusOrphaned
	}
	if containerState == "running" {
		return model.StatusRunning
	}
	return model.StatusStopped
}

// keepAliveArgs holds the entrypoint override that keeps the environment
// container alive with nothing running. The container exists to be entered
// via "devenv enter"; its PID 1 just sleeps forever.
var keepAliveArgs = []string{"--entrypoint", "tail"}

// RunContainer creates and starts the environment's container with
// "docker run -d". The docker CLI is used instead of ContainerCreate
// because the full flag set (labels, binds, ports, env) maps one-to-one
// onto flags users already know from the docker run man page, and the
// error output is immediately meaningful to them.
//
// extraEnv entries are KEY=VALUE pairs injected into the container
// environment (from the manifest env map and .env file).
func RunContainer(ctx context.Context, env *model.Environment, workdir string, extraEnv []string) error {
	args := buildRunArgs(env, workdir, extraEnv)

	logrus.Debugf("docker %s", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, "docker", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("docker run failed for container %q: %s",
				env.ContainerName(), strings.TrimSpace(string(output))),
			err,
		)
	}
	return nil
}

// buildRunArgs assembles the full "docker run" argument list for an
// environment. Split from RunContainer so the flag construction is
// testable without a daemon.
func buildRunArgs(env *model.Environment, workdir string, extraEnv []string) []string {
	args := []string{"run", "-d", "--name", env.ContainerName()}

	// Labels carry the complete environment definition (see label.go).
	labels := BuildLabels(env)
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic argument order
	for _, k := range keys {
		args = append(args, "--label", k+"="+labels[k])
	}

	for i := range env.Mounts {
		args = append(args, "-v", env.Mounts[i].String())
	}
	for i := range env.Ports {
		args = append(args, "-p", env.Ports[i].String())
	}
	for _, kv := range extraEnv {
		args = append(args, "-e", kv)
	}
	if workdir != "" {
		args = append(args, "-w", workdir)
	}

	args = append(args, keepAliveArgs...)
	args = append(args, env.ImageTag)
	args = append(args, "-f", "/dev/null")
	return args
}

// StartContainer resumes a stopped container via the SDK.
func StartContainer(ctx context.Context, cli *Client, containerID string) error {
	if err := cli.Inner().ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to start container %q", containerID),
			err,
		)
	}
	return nil
}

// StopContainer stops a running container via the SDK. The daemon sends
// SIGTERM and escalates to SIGKILL after its default grace period.
func StopContainer(ctx context.Context, cli *Client, containerID string) error {
	if err := cli.Inner().ContainerStop(ctx, containerID, container.StopOptions{}); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to stop container %q", containerID),
			err,
		)
	}
	return nil
}

// RemoveContainer removes a container via the SDK. With force, the daemon
// kills a still-running container before removal; without it, the caller
// must stop the container first.
func RemoveContainer(ctx context.Context, cli *Client, containerID string, force bool) error {
	if err := cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{Force: force}); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove container %q", containerID),
			err,
		)
	}
	return nil
}

// WaitStopped polls until the container leaves the "running" state or the
// context is cancelled. Used by down --force as a bounded settle check.
func WaitStopped(ctx context.Context, cli *Client, containerID string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		inspect, err := cli.Inner().ContainerInspect(ctx, containerID)
		if err != nil {
			return model.WrapCLIError(model.ExitDockerNotRunning,
				fmt.Sprintf("failed to inspect container %q", containerID), err)
		}
		if inspect.State == nil || !inspect.State.Running {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

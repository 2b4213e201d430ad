package docker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aahsnr/development/internal/model"
)

// TestContainerToInfo verifies the SDK-to-domain mapping, in particular
// the stripping of the leading slash Docker puts on container names.
func TestContainerToInfo(t *testing.T) {
	c := types.Container{
		ID:     "abc123",
		Names:  []string{"/devenv-myproject"},
		State:  "running",
		Labels: map[string]string{LabelName: "myproject"},
	}

	info := containerToInfo(c)

	assert.Equal(t, "abc123", info.ContainerID)
	assert.Equal(t, "devenv-myproject", info.ContainerName)
	assert.Equal(t, "running", info.State)
	assert.Equal(t, "myproject", info.Labels[LabelName])
}

// TestContainerToInfo_NoNames verifies the mapping tolerates a container
// with an empty name list.
func TestContainerToInfo_NoNames(t *testing.T) {
	info := containerToInfo(types.Container{ID: "abc123"})
	assert.Empty(t, info.ContainerName)
}

// TestDetermineStatus covers the lifecycle state derivation, including
// orphan detection overriding the container state.
func TestDetermineStatus(t *testing.T) {
	projectDir := t.TempDir()
	missingDir := filepath.Join(projectDir, "deleted")

	tests := []struct {
		name           string
		containerState string
		projectPath    string
		want           model.EnvStatus
	}{
		{"running container", "running", projectDir, model.StatusRunning},
		{"exited container", "exited", projectDir, model.StatusStopped},
		{"created container", "created", projectDir, model.StatusStopped},
		{"deleted project wins over running", "running", missingDir, model.StatusOrphaned},
		{"deleted project wins over exited", "exited", missingDir, model.StatusOrphaned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineStatus(tt.containerState, tt.projectPath))
		})
	}
}

// TestBuildEnvironment verifies the full container-to-environment
// reconstruction from labels plus live state.
func TestBuildEnvironment(t *testing.T) {
	projectDir := t.TempDir()
	env := testEnvironment()
	env.ProjectPath = projectDir

	info := model.ContainerInfo{
		ContainerID:   "abc123",
		ContainerName: "devenv-myproject",
		State:         "running",
		Labels:        BuildLabels(env),
	}

	rebuilt, err := BuildEnvironment(info)

	require.NoError(t, err)
	assert.Equal(t, env.Name, rebuilt.Name)
	assert.Equal(t, model.StatusRunning, rebuilt.Status)
	require.NotNil(t, rebuilt.Container)
	assert.Equal(t, "abc123", rebuilt.Container.ContainerID)
}

// TestBuildRunArgs verifies the exact docker run argument list: header,
// labels in sorted order, mounts, ports, env, workdir, and the keep-alive
// entrypoint wrapped around the image.
func TestBuildRunArgs(t *testing.T) {
	env := &model.Environment{
		Name:        "myproject",
		ProjectPath: "/home/user/myproject",
		ImageTag:    "devenv/myproject:3f92ac01be44",
		Shell:       "/bin/bash",
		Mounts: []model.MountSpec{
			{Source: "/home/user/myproject", Target: "/workspace"},
		},
		Ports: []model.PortSpec{
			{HostPort: 8888, ContainerPort: 8888, Protocol: "tcp"},
		},
		CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}

	args := buildRunArgs(env, "/workspace", []string{"PYTHONDONTWRITEBYTECODE=1"})

	// Header.
	assert.Equal(t, []string{"run", "-d", "--name", "devenv-myproject"}, args[:4])

	// Labels appear as --label key=value pairs in sorted key order.
	assert.Contains(t, args, "--label")
	assert.Contains(t, args, LabelManagedBy+"="+ManagedByValue)
	assert.Contains(t, args, LabelName+"=myproject")
	assert.Contains(t, args, LabelMountPrefix+"0=/home/user/myproject:/workspace")
	assert.Contains(t, args, LabelPortPrefix+"0=8888:8888/tcp")

	// Runtime flags.
	assert.Contains(t, args, "-v")
	assert.Contains(t, args, "/home/user/myproject:/workspace")
	assert.Contains(t, args, "-p")
	assert.Contains(t, args, "8888:8888/tcp")
	assert.Contains(t, args, "-e")
	assert.Contains(t, args, "PYTHONDONTWRITEBYTECODE=1")
	assert.Contains(t, args, "-w")
	assert.Contains(t, args, "/workspace")

	// The tail of the command: keep-alive entrypoint, image, tail args.
	n := len(args)
	require.GreaterOrEqual(t, n, 5)
	assert.Equal(t, []string{"--entrypoint", "tail", env.ImageTag, "-f", "/dev/null"}, args[n-5:])
}

// TestBuildRunArgs_Deterministic verifies the argument order is stable
// across calls, since the label map iteration order is not.
func TestBuildRunArgs_Deterministic(t *testing.T) {
	env := testEnvironment()

	first := buildRunArgs(env, "/workspace", nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, buildRunArgs(env, "/workspace", nil))
	}
}

// TestBuildRunArgs_NoWorkdir verifies -w is omitted when no workdir is set.
func TestBuildRunArgs_NoWorkdir(t *testing.T) {
	env := testEnvironment()
	args := buildRunArgs(env, "", nil)
	assert.NotContains(t, args, "-w")
}

package docker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aahsnr/development/internal/model"
)

func testEnvironment() *model.Environment {
	return &model.Environment{
		Name:        "myproject",
		ProjectPath: "/home/user/myproject",
		ImageTag:    "devenv/myproject:3f92ac01be44",
		Shell:       "/bin/bash",
		Mounts: []model.MountSpec{
			{Source: "/home/user/myproject", Target: "/workspace"},
			{Source: "/home/user/.gitconfig", Target: "/home/dev/.gitconfig", ReadOnly: true},
		},
		Ports: []model.PortSpec{
			{HostPort: 8888, ContainerPort: 8888, Protocol: "tcp"},
		},
		CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

// TestBuildLabels verifies the exact label set written to a container,
// since the labels are the tool's only persistent state.
func TestBuildLabels(t *testing.T) {
	env := testEnvironment()

	labels := BuildLabels(env)

	assert.Equal(t, "devenv", labels[LabelManagedBy])
	assert.Equal(t, "myproject", labels[LabelName])
	assert.Equal(t, "/home/user/myproject", labels[LabelProjectPath])
	assert.Equal(t, "devenv/myproject:3f92ac01be44", labels[LabelImage])
	assert.Equal(t, "/bin/bash", labels[LabelShell])
	assert.Equal(t, "2026-08-30T12:00:00Z", labels[LabelCreatedAt])
	assert.Equal(t, "/home/user/myproject:/workspace", labels[LabelMountPrefix+"0"])
	assert.Equal(t, "/home/user/.gitconfig:/home/dev/.gitconfig:ro", labels[LabelMountPrefix+"1"])
	assert.Equal(t, "8888:8888/tcp", labels[LabelPortPrefix+"0"])
	assert.Len(t, labels, 9, "no unexpected labels should be written")
}

// TestParseLabels_RoundTrip verifies that ParseLabels fully inverts
// BuildLabels: an Environment survives a trip through the label map.
func TestParseLabels_RoundTrip(t *testing.T) {
	env := testEnvironment()

	parsed, err := ParseLabels(BuildLabels(env))

	require.NoError(t, err)
	assert.Equal(t, env.Name, parsed.Name)
	assert.Equal(t, env.ProjectPath, parsed.ProjectPath)
	assert.Equal(t, env.ImageTag, parsed.ImageTag)
	assert.Equal(t, env.Shell, parsed.Shell)
	assert.Equal(t, env.Mounts, parsed.Mounts)
	assert.Equal(t, env.Ports, parsed.Ports)
	assert.True(t, env.CreatedAt.Equal(parsed.CreatedAt))
}

// TestParseLabels_MissingRequired verifies that every missing required
// label is reported at once, not just the first.
func TestParseLabels_MissingRequired(t *testing.T) {
	labels := map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelName:      "myproject",
	}

	_, err := ParseLabels(labels)

	require.Error(t, err)
	assert.Contains(t, err.Error(), LabelProjectPath)
	assert.Contains(t, err.Error(), LabelImage)
	assert.Contains(t, err.Error(), LabelCreatedAt)
}

// TestParseLabels_ForeignContainer verifies that containers carrying the
// label keys but a different manager value are rejected.
func TestParseLabels_ForeignContainer(t *testing.T) {
	labels := BuildLabels(testEnvironment())
	labels[LabelManagedBy] = "someothertool"

	_, err := ParseLabels(labels)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not managed by devenv")
}

// TestParseLabels_BadTimestamp verifies created-at validation.
func TestParseLabels_BadTimestamp(t *testing.T) {
	labels := BuildLabels(testEnvironment())
	labels[LabelCreatedAt] = "yesterday"

	_, err := ParseLabels(labels)

	assert.Error(t, err)
}

// TestParseLabels_CorruptMount verifies that a malformed mount label
// produces an error naming the offending label.
func TestParseLabels_CorruptMount(t *testing.T) {
	labels := BuildLabels(testEnvironment())
	labels[LabelMountPrefix+"0"] = "not-a-mount"

	_, err := ParseLabels(labels)

	require.Error(t, err)
	assert.Contains(t, err.Error(), LabelMountPrefix+"0")
}

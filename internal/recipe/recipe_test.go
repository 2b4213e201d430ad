package recipe

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aahsnr/development/internal/config"
	"github.com/aahsnr/development/internal/project"
)

func testDefaults() config.DefaultsConfig {
	return config.DefaultsConfig{
		BaseImage:    "gentoo/stage3:latest",
		PortageImage: "gentoo/portage:latest",
		Shell:        "/bin/bash",
		User:         "dev",
		Workdir:      "/workspace",
	}
}

// TestNew verifies the manifest/defaults merge: the manifest wins where it
// sets a value, the base packages are always present, and the package list
// is deduplicated and sorted.
func TestNew(t *testing.T) {
	m := &project.Manifest{
		Packages: []string{"dev-python/uv", "dev-lang/python", "dev-python/uv"},
		Shell:    "/bin/zsh",
		MakeOpts: "-j8",
	}

	r := New("myproject", m, testDefaults())

	assert.Equal(t, "myproject", r.EnvName)
	assert.Equal(t, "gentoo/stage3:latest", r.BaseImage)
	assert.Equal(t, "gentoo/portage:latest", r.PortageImage)
	assert.Equal(t, "/bin/zsh", r.Shell, "manifest shell should win")
	assert.Equal(t, "-j8", r.MakeOpts)
	assert.Equal(t, "dev", r.User)
	assert.Equal(t, "/workspace", r.Workdir)

	assert.Equal(t, []string{
		"app-shells/bash",
		"dev-lang/python",
		"dev-python/uv",
		"dev-vcs/git",
	}, r.Packages)
}

// TestNew_BaseImageOverride verifies the manifest base image beats the
// configured default.
func TestNew_BaseImageOverride(t *testing.T) {
	m := &project.Manifest{BaseImage: "gentoo/stage3:musl"}
	r := New("myproject", m, testDefaults())
	assert.Equal(t, "gentoo/stage3:musl", r.BaseImage)
}

// TestContextFiles verifies the rendered build context: a two-stage
// Dockerfile plus the portage configuration files.
func TestContextFiles(t *testing.T) {
	m := &project.Manifest{
		Packages:       []string{"dev-python/uv"},
		UseFlags:       []string{"dev-lang/python sqlite"},
		AcceptKeywords: []string{"dev-python/uv ~amd64"},
		Use:            "-X",
	}
	r := New("myproject", m, testDefaults())

	files, err := r.ContextFiles()

	require.NoError(t, err)
	require.Len(t, files, 4)

	dockerfile := string(files["Dockerfile"])
	assert.Contains(t, dockerfile, "FROM gentoo/portage:latest AS portage")
	assert.Contains(t, dockerfile, "FROM gentoo/stage3:latest")
	assert.Contains(t, dockerfile, "COPY --from=portage /var/db/repos/gentoo /var/db/repos/gentoo")
	assert.Contains(t, dockerfile, "dev-python/uv")
	assert.Contains(t, dockerfile, "useradd")
	assert.Contains(t, dockerfile, `CMD ["/bin/bash", "-l"]`)

	makeConf := string(files["make.conf"])
	assert.Contains(t, makeConf, "MAKEOPTS=\"-j4\"")
	assert.Contains(t, makeConf, "USE=\"-X\"")

	assert.Equal(t, "dev-lang/python sqlite\n", string(files["package.use"]))
	assert.Equal(t, "dev-python/uv ~amd64\n", string(files["package.accept_keywords"]))
}

// TestContextFiles_EmptyPortageFiles verifies that absent use flags and
// keywords render empty files, which portage treats as absent.
func TestContextFiles_EmptyPortageFiles(t *testing.T) {
	r := New("myproject", &project.Manifest{}, testDefaults())

	files, err := r.ContextFiles()

	require.NoError(t, err)
	assert.Empty(t, files["package.use"])
	assert.Empty(t, files["package.accept_keywords"])
}

// TestHash verifies hash stability and content addressing: the same
// recipe always hashes the same, and any recipe change moves the hash.
func TestHash(t *testing.T) {
	defaults := testDefaults()
	base := New("myproject", &project.Manifest{Packages: []string{"dev-python/uv"}}, defaults)

	first, err := base.Hash()
	require.NoError(t, err)
	assert.Len(t, first, 12)
	assert.Equal(t, strings.ToLower(first), first, "hash is lowercase hex")

	again, err := base.Hash()
	require.NoError(t, err)
	assert.Equal(t, first, again, "hashing is deterministic")

	changed := New("myproject", &project.Manifest{Packages: []string{"dev-python/pip"}}, defaults)
	other, err := changed.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, first, other, "changing the package list must change the hash")

	flagged := New("myproject", &project.Manifest{
		Packages: []string{"dev-python/uv"},
		UseFlags: []string{"dev-lang/python sqlite"},
	}, defaults)
	other, err = flagged.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, first, other, "changing use flags must change the hash")
}

// TestTag verifies the tag format "devenv/<env>:<hash>".
func TestTag(t *testing.T) {
	r := New("myproject", &project.Manifest{}, testDefaults())

	tag, err := r.Tag()

	require.NoError(t, err)
	hash, err := r.Hash()
	require.NoError(t, err)
	assert.Equal(t, "devenv/myproject:"+hash, tag)
}

// TestWriteContext verifies the build context lands on disk with the same
// bytes ContextFiles reports, so the hash matches what docker build sees.
func TestWriteContext(t *testing.T) {
	r := New("myproject", &project.Manifest{Packages: []string{"dev-python/uv"}}, testDefaults())
	dir := t.TempDir()

	require.NoError(t, r.WriteContext(dir))

	files, err := r.ContextFiles()
	require.NoError(t, err)
	for name, want := range files {
		got, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, "file %s", name)
		assert.Equal(t, want, got, "file %s", name)
	}
}

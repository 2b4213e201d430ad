// Package project handles the per-project manifest that describes a
// development environment: the image recipe inputs (packages, portage
// configuration) and the container surface (mounts, ports, env).
//
// The manifest lives at the project root as .devenv.yaml (or .devenv.yml).
// A JSON variant, .devenv.json, is also accepted and may contain comments
// and trailing commas; github.com/tidwall/jsonc strips those before the
// standard library parses it.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/aahsnr/development/internal/model"
)

// manifestNames are the recognized manifest file names, in lookup order.
var manifestNames = []string{".devenv.yaml", ".devenv.yml", ".devenv.json"}

// Manifest is the parsed project manifest. Zero values mean "use the
// global default" for scalar fields and "none" for lists.
type Manifest struct {
	// Name overrides the environment name derived from the directory name.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// BaseImage overrides the stage3 base image for the build.
	BaseImage string `yaml:"base_image,omitempty" json:"baseImage,omitempty"`

	// Packages are the Gentoo atoms emerged into the image, e.g.
	// "dev-lang/python:3.13" or "dev-python/uv".
	Packages []string `yaml:"packages,omitempty" json:"packages,omitempty"`

	// UseFlags are raw package.use lines, e.g. "dev-lang/python sqlite".
	UseFlags []string `yaml:"use_flags,omitempty" json:"useFlags,omitempty"`

	// AcceptKeywords are raw package.accept_keywords lines, e.g.
	// "dev-python/uv ~amd64".
	AcceptKeywords []string `yaml:"accept_keywords,omitempty" json:"acceptKeywords,omitempty"`

	// MakeOpts is the MAKEOPTS value in make.conf (e.g. "-j8").
	MakeOpts string `yaml:"make_opts,omitempty" json:"makeOpts,omitempty"`

	// Use is the global USE string in make.conf.
	Use string `yaml:"use,omitempty" json:"use,omitempty"`

	// Mounts are extra bind mounts beyond the implicit project mount.
	// Relative sources are resolved against the project directory.
	Mounts []model.MountSpec `yaml:"mounts,omitempty" json:"mounts,omitempty"`

	// Ports are container-to-host port publications.
	Ports []model.PortSpec `yaml:"ports,omitempty" json:"ports,omitempty"`

	// Env are environment variables set inside the container.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// EnvFile is a dotenv file (relative to the project) whose entries are
	// also set inside the container. Manifest Env wins on conflicts.
	EnvFile string `yaml:"env_file,omitempty" json:"envFile,omitempty"`

	// Shell overrides the login shell for "devenv enter".
	Shell string `yaml:"shell,omitempty" json:"shell,omitempty"`

	// Workdir overrides the in-container project mount point.
	Workdir string `yaml:"workdir,omitempty" json:"workdir,omitempty"`

	// User overrides the unprivileged account created in the image.
	User string `yaml:"user,omitempty" json:"user,omitempty"`
}

// FindManifest looks for a manifest file in dir and returns its absolute
// path. Returns a CLIError with ExitConfigNotFound when none of the
// recognized names exists, pointing the user at "devenv init".
func FindManifest(dir string) (string, error) {
	for _, name := range manifestNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return filepath.Abs(path)
		}
	}
	return "", model.NewCLIError(model.ExitConfigNotFound,
		fmt.Sprintf("no project manifest found in %s (looked for %s) — run \"devenv init\"",
			dir, strings.Join(manifestNames, ", ")))
}

// Load reads and parses a manifest file, dispatching on the extension.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigNotFound,
			fmt.Sprintf("failed to read manifest %s", path), err)
	}

	m := &Manifest{}
	switch filepath.Ext(path) {
	case ".json":
		// jsonc.ToJSON rewrites comments and trailing commas in place so
		// offsets in parse errors still roughly line up with the source.
		if err := json.Unmarshal(jsonc.ToJSON(data), m); err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid JSON manifest %s", path), err)
		}
	default:
		if err := yaml.Unmarshal(data, m); err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid YAML manifest %s", path), err)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid manifest %s", path), err)
	}
	return m, nil
}

// Validate checks the manifest fields that have structural constraints.
// Mount sources are not required to be absolute here — resolution against
// the project directory happens in ResolveMounts.
func (m *Manifest) Validate() error {
	if m.Name != "" {
		if err := model.ValidateName(m.Name); err != nil {
			return err
		}
	}
	if m.Shell != "" && !strings.HasPrefix(m.Shell, "/") {
		return fmt.Errorf("shell %q must be an absolute path", m.Shell)
	}
	if m.Workdir != "" && !strings.HasPrefix(m.Workdir, "/") {
		return fmt.Errorf("workdir %q must be an absolute path", m.Workdir)
	}
	for i := range m.Mounts {
		if m.Mounts[i].Target == "" || !strings.HasPrefix(m.Mounts[i].Target, "/") {
			return fmt.Errorf("mount %d: target %q must be an absolute path", i, m.Mounts[i].Target)
		}
		if m.Mounts[i].Source == "" {
			return fmt.Errorf("mount %d: source must not be empty", i)
		}
	}
	if err := model.ValidatePortSpecs(m.Ports); err != nil {
		return err
	}
	for _, atom := range m.Packages {
		if strings.TrimSpace(atom) == "" {
			return fmt.Errorf("packages must not contain empty entries")
		}
	}
	return nil
}

// EnvName returns the environment name for a project: the manifest name if
// set, otherwise a name derived from the directory.
func (m *Manifest) EnvName(projectDir string) (string, error) {
	if m.Name != "" {
		return m.Name, nil
	}
	name := DeriveName(projectDir)
	if err := model.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// DeriveName sanitizes a project directory's base name into a valid
// environment name: lowercase, non-alphanumerics collapsed to hyphens.
// When nothing survives sanitization the name falls back to a short hash
// of the full path, so every directory still gets a stable identity.
func DeriveName(projectDir string) string {
	base := strings.ToLower(filepath.Base(projectDir))

	var b strings.Builder
	lastHyphen := false
	for _, r := range base {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen && b.Len() > 0:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	name := strings.Trim(b.String(), "-")

	if name == "" {
		sum := sha256.Sum256([]byte(projectDir))
		name = "env-" + hex.EncodeToString(sum[:])[:8]
	}
	return name
}

// ResolveMounts produces the final mount list for the container: the
// project directory at workdir first, then the manifest mounts with
// relative sources resolved against the project directory.
func (m *Manifest) ResolveMounts(projectDir, workdir string) ([]model.MountSpec, error) {
	mounts := []model.MountSpec{{Source: projectDir, Target: workdir}}

	for i := range m.Mounts {
		mount := m.Mounts[i]
		if !filepath.IsAbs(mount.Source) {
			mount.Source = filepath.Join(projectDir, mount.Source)
		}
		if err := mount.Validate(); err != nil {
			return nil, fmt.Errorf("mount %d: %w", i, err)
		}
		mounts = append(mounts, mount)
	}
	return mounts, nil
}

// CollectEnv merges the env_file (if any) with the manifest env map into
// KEY=VALUE pairs for docker run, sorted deterministically by the caller's
// iteration being over a sorted key slice. Manifest entries override file
// entries with the same key.
func (m *Manifest) CollectEnv(projectDir string) ([]string, error) {
	merged := map[string]string{}

	if m.EnvFile != "" {
		path := m.EnvFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectDir, path)
		}
		fileEnv, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("env_file %s: %w", path, err)
		}
		for k, v := range fileEnv {
			merged[k] = v
		}
	}

	for k, v := range m.Env {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	// Sorted for stable docker run argument order across invocations.
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+merged[k])
	}
	return pairs, nil
}

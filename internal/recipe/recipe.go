// Package recipe renders the Gentoo image build recipe: a Dockerfile plus
// the portage configuration files (make.conf, package.use,
// package.accept_keywords) that go into its build context.
//
// The rendered recipe is content-addressed: the image tag embeds a hash of
// every file in the context, so "build the image if absent" keyed by tag
// also covers "rebuild when the recipe changed" — editing the package list
// produces a new tag that does not exist yet.
package recipe

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/aahsnr/development/internal/config"
	"github.com/aahsnr/development/internal/project"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// templates is parsed once at startup; the files are embedded, so a parse
// failure is a programming error and panics via Must.
var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// basePackages are always part of the image: the toolchain the shell
// integration and a Python workflow assume, independent of the manifest.
var basePackages = []string{
	"app-shells/bash",
	"dev-vcs/git",
	"dev-lang/python",
}

// hashLen is the number of hex digits of the recipe hash kept in the tag.
// Twelve matches the short-ID length docker itself displays.
const hashLen = 12

// Recipe is the fully resolved set of inputs for an image build, produced
// by merging the project manifest with the global defaults.
type Recipe struct {
	// EnvName is the environment the image belongs to; it becomes the
	// repository part of the tag ("devenv/<name>").
	EnvName string

	// BaseImage is the stage3 image the build starts from.
	BaseImage string

	// PortageImage supplies the portage tree snapshot copied into the build.
	PortageImage string

	// Packages are the Gentoo atoms emerged into the image, base set plus
	// manifest additions, deduplicated and sorted.
	Packages []string

	// UseFlags are the package.use lines.
	UseFlags []string

	// AcceptKeywords are the package.accept_keywords lines.
	AcceptKeywords []string

	// MakeOpts is the MAKEOPTS value for make.conf.
	MakeOpts string

	// Use is the global USE string for make.conf.
	Use string

	// User is the unprivileged account created in the image.
	User string

	// Shell is the login shell for the user.
	Shell string

	// Workdir is the in-container project mount point.
	Workdir string
}

// New builds a Recipe from a manifest and the global defaults. The
// manifest wins wherever it sets a value.
func New(envName string, m *project.Manifest, defaults config.DefaultsConfig) *Recipe {
	r := &Recipe{
		EnvName:        envName,
		BaseImage:      firstNonEmpty(m.BaseImage, defaults.BaseImage),
		PortageImage:   defaults.PortageImage,
		UseFlags:       m.UseFlags,
		AcceptKeywords: m.AcceptKeywords,
		MakeOpts:       firstNonEmpty(m.MakeOpts, "-j4"),
		Use:            m.Use,
		User:           defaults.User,
		Shell:          firstNonEmpty(m.Shell, defaults.Shell),
		Workdir:        firstNonEmpty(m.Workdir, defaults.Workdir),
	}

	seen := map[string]bool{}
	for _, atom := range append(append([]string{}, basePackages...), m.Packages...) {
		atom = strings.TrimSpace(atom)
		if atom == "" || seen[atom] {
			continue
		}
		seen[atom] = true
		r.Packages = append(r.Packages, atom)
	}
	sort.Strings(r.Packages)

	return r
}

// ContextFiles renders every file of the build context, keyed by file
// name. The map is the single source for both WriteContext and Hash, which
// is what ties the tag to the exact bytes docker build will see.
func (r *Recipe) ContextFiles() (map[string][]byte, error) {
	dockerfile, err := r.render("Dockerfile.tmpl")
	if err != nil {
		return nil, err
	}
	makeConf, err := r.render("make.conf.tmpl")
	if err != nil {
		return nil, err
	}

	return map[string][]byte{
		"Dockerfile":              dockerfile,
		"make.conf":               makeConf,
		"package.use":             linesFile(r.UseFlags),
		"package.accept_keywords": linesFile(r.AcceptKeywords),
	}, nil
}

// render executes one embedded template against the recipe.
func (r *Recipe) render(name string) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, r); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// linesFile joins config lines into file content with a trailing newline.
// Portage treats an empty file the same as an absent one, so no lines is
// fine.
func linesFile(lines []string) []byte {
	if len(lines) == 0 {
		return []byte{}
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// Hash returns the recipe content hash: sha256 over every context file,
// fed in name order so the digest is independent of map iteration.
func (r *Recipe) Hash() (string, error) {
	files, err := r.ContextFiles()
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		// File name and a separator are hashed too, so moving bytes
		// between files changes the digest.
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write(files[name])
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:hashLen], nil
}

// Tag returns the content-addressed image tag "devenv/<env>:<hash>".
func (r *Recipe) Tag() (string, error) {
	hash, err := r.Hash()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("devenv/%s:%s", r.EnvName, hash), nil
}

// WriteContext materializes the build context into dir, which must exist.
// Typically dir is a fresh temp directory removed after the build.
func (r *Recipe) WriteContext(dir string) error {
	files, err := r.ContextFiles()
	if err != nil {
		return err
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

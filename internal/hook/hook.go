// Package hook renders the shell integration snippets printed by
// "devenv hook". The snippets are the whole directory-change story: devenv
// itself never watches directories, it only exposes the up/down commands
// the snippets call.
package hook

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// data is the template payload. Binary is parameterized so the emitted
// snippets keep working if the binary is installed under another name.
type data struct {
	Binary string
}

// Kinds returns the supported hook kinds, sorted.
func Kinds() []string {
	var kinds []string
	for _, t := range templates.Templates() {
		kinds = append(kinds, strings.TrimSuffix(t.Name(), ".tmpl"))
	}
	sort.Strings(kinds)
	return kinds
}

// Render produces the integration snippet for the given kind ("direnv",
// "bash", "zsh") using the given binary name.
func Render(kind, binary string) (string, error) {
	if binary == "" {
		binary = "devenv"
	}

	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, kind+".tmpl", data{Binary: binary})
	if err != nil {
		return "", fmt.Errorf("unknown hook kind %q (valid: %s)", kind, strings.Join(Kinds(), ", "))
	}
	return buf.String(), nil
}

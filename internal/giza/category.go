// Package giza implements the legacy YAML authoring format: categorized
// spec files (steps, extracts, release specifications) with cross-file
// inheritance, reified into one or more output pages per file.
package giza

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docforge/internal/docmodel"
	"git.home.luguber.info/inful/docforge/internal/rst"
)

// PageFactory creates an empty output page bound to the spec file being
// reified, together with an embedded-markup parser accumulating onto it.
type PageFactory func() (*docmodel.Page, rst.EmbeddedParser)

// ReifiedFile is one spec file with its inheritance chains resolved.
type ReifiedFile struct {
	FileName string // registry key (base name)
	Path     string // filesystem path of the spec file
	Text     string // substituted raw text
	entries  any    // kind-specific []*T
}

// Category is the capability set of one legacy document kind. The
// orchestrator drives categories purely through this interface.
type Category interface {
	// Name returns the category prefix ("steps", "extracts", "release").
	Name() string

	// Parse decodes a spec file, substituting project constants first. If
	// text is non-empty it is used instead of the file contents. Decode
	// problems are diagnostics; only an unreadable file is an error.
	Parse(path, text string) (entries any, rawText string, diagnostics []docmodel.Diagnostic, err error)

	// Add registers (or replaces) a parsed file, updating the inheritance
	// dependency graph.
	Add(path, text string, entries any)

	// ReifyAll resolves every registered file, appending diagnostics into
	// allDiagnostics keyed by source path.
	ReifyAll(allDiagnostics map[string][]docmodel.Diagnostic) []*ReifiedFile

	// ReifyFile resolves a single registered file by its base name. An
	// unregistered name is a caller defect and returns an error.
	ReifyFile(fileName string, allDiagnostics map[string][]docmodel.Diagnostic) (*ReifiedFile, error)

	// ToPages synthesizes the output pages of a reified file.
	ToPages(factory PageFactory, reified *ReifiedFile) []*docmodel.Page

	// Dependents returns the base names of registered files that inherit,
	// directly, from the named file.
	Dependents(fileName string) []string

	// PathOf returns the registered path for a base name.
	PathOf(fileName string) (string, bool)

	// Remove drops a file's registration. Unknown names are ignored.
	Remove(fileName string)

	// Len returns the number of registered files.
	Len() int
}

// InferCategory returns the category prefix of a legacy YAML file name:
// everything before the first dash (steps-foo.yaml -> steps).
func InferCategory(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '-'); i >= 0 {
		return base[:i]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

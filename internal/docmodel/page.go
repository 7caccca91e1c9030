package docmodel

import (
	"path/filepath"
	"strings"
)

// Page is one compiled source unit: the document tree plus everything
// discovered while building it. Pages are created fresh on every parse;
// a page is finished once its pending tasks have been drained.
type Page struct {
	SourcePath   string // filesystem path of the authored source
	Source       string // raw source text
	AST          *Node
	StaticAssets AssetSet
	PendingTasks []*PendingTask

	// Set only for pages synthesized from the legacy YAML format. They
	// determine the page's externally visible output path.
	Category       string
	OutputFilename string
}

// NewPage creates an empty page for the given source.
func NewPage(sourcePath, source string, ast *Node) *Page {
	return &Page{
		SourcePath:   sourcePath,
		Source:       source,
		AST:          ast,
		StaticAssets: make(AssetSet),
	}
}

// OutputPath returns the path uniquely identifying this output artifact.
// Directly authored documents publish under their source path; legacy
// category outputs publish under a synthesized <category>/ directory, e.g.
// steps-foo.yaml becomes steps/foo.yaml.
func (p *Page) OutputPath() string {
	if p.Category == "" {
		return p.SourcePath
	}
	name := p.OutputFilename
	if name == "" {
		name = strings.Replace(filepath.Base(p.SourcePath), p.Category+"-", "", 1)
	}
	return filepath.Join(filepath.Dir(p.SourcePath), p.Category, name)
}

// Finish runs every pending task in scheduling order against the cache and
// clears the task list, returning the diagnostics the tasks produced.
func (p *Page) Finish(cache *Cache) []Diagnostic {
	var diagnostics []Diagnostic
	for _, task := range p.PendingTasks {
		diagnostics = append(diagnostics, task.Run(cache)...)
	}
	p.PendingTasks = nil
	return diagnostics
}

// Package rst defines the parse-event vocabulary produced by markup
// frontends and the visitor that builds the generic document tree from it.
package rst

import (
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docforge/internal/docmodel"
	forgeerrors "git.home.luguber.info/inful/docforge/internal/errors"
)

// Parser turns one source file into a parse-event tree. If text is non-empty
// it is parsed instead of the file's on-disk contents. The returned string
// is the source text that was actually parsed.
type Parser interface {
	Parse(path string, text string) (*Event, string, error)
}

// EmbeddedParser parses markup embedded inside another document (a legacy
// YAML field, for example) into document tree nodes. lineno offsets the
// reported positions; inline selects the visitor variant that suppresses
// block-level containers.
type EmbeddedParser func(text string, lineno int, inline bool) []*docmodel.Node

// ParsePage parses one source file into a fresh Page plus its diagnostics.
// root is the project source root used to resolve referenced paths.
func ParsePage(parser Parser, root, docPath, text string) (*docmodel.Page, []docmodel.Diagnostic, error) {
	ev, source, err := parser.Parse(docPath, text)
	if err != nil {
		return nil, nil, err
	}
	v := NewVisitor(root, docPath)
	ast := v.Walk(ev)
	page := docmodel.NewPage(docPath, source, ast)
	page.StaticAssets = v.assets
	page.PendingTasks = v.pending
	return page, v.diagnostics, nil
}

// MakeEmbeddedParser returns an EmbeddedParser that accumulates diagnostics,
// static assets, and pending tasks onto the given page.
func MakeEmbeddedParser(parser Parser, root string, page *docmodel.Page, diagnostics *[]docmodel.Diagnostic) EmbeddedParser {
	return func(text string, lineno int, inline bool) []*docmodel.Node {
		// Pad with newlines so reported lines match the embedding document.
		padded := strings.Repeat("\n", lineno) + strings.TrimSpace(text)
		ev, _, err := parser.Parse(page.SourcePath, padded)
		if err != nil {
			*diagnostics = append(*diagnostics, docmodel.ErrorDiagnostic(err.Error(), lineno))
			return nil
		}
		v := NewVisitor(root, page.SourcePath)
		v.inline = inline
		tree := v.Walk(ev)
		*diagnostics = append(*diagnostics, v.diagnostics...)
		page.StaticAssets.Union(v.assets)
		page.PendingTasks = append(page.PendingTasks, v.pending...)
		return tree.Children
	}
}

// RouteByExtension dispatches parsing to a frontend registered for the
// file's extension, falling back to Fallback when set.
type RouteByExtension struct {
	Routes   map[string]Parser
	Fallback Parser
}

func (r RouteByExtension) Parse(docPath string, text string) (*Event, string, error) {
	if p, ok := r.Routes[filepath.Ext(docPath)]; ok {
		return p.Parse(docPath, text)
	}
	if r.Fallback != nil {
		return r.Fallback.Parse(docPath, text)
	}
	return nil, "", forgeerrors.Newf(forgeerrors.CategoryValidation, forgeerrors.SeverityError,
		"no markup frontend registered for %q", filepath.Ext(docPath))
}

// rerootPath resolves a path referenced from within a document to a
// canonical project-relative FileId and an absolute filesystem path.
// Absolute references are relative to the project source root; relative
// references are relative to the referencing document.
func rerootPath(target, docPath, root string) (docmodel.FileId, string, error) {
	var rel string
	if path.IsAbs(filepath.ToSlash(target)) {
		rel = strings.TrimPrefix(filepath.ToSlash(target), "/")
	} else {
		docDir := filepath.Dir(docPath)
		docRel, err := filepath.Rel(root, docDir)
		if err != nil {
			return "", "", err
		}
		rel = path.Join(filepath.ToSlash(docRel), filepath.ToSlash(target))
	}
	rel = path.Clean(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", "", forgeerrors.Newf(forgeerrors.CategoryFileSystem, forgeerrors.SeverityError,
			"path escapes the project root: %s", target)
	}
	fileid := docmodel.NewFileId(rel)
	return fileid, filepath.Join(root, filepath.FromSlash(rel)), nil
}

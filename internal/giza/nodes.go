package giza

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/docmodel"
	forgeerrors "git.home.luguber.info/inful/docforge/internal/errors"
	"git.home.luguber.info/inful/docforge/internal/graph"
	"gopkg.in/yaml.v3"
)

// maxInheritanceDepth bounds reification so a reference cycle degrades into
// a diagnostic instead of unbounded recursion.
const maxInheritanceDepth = 100

var replacementPattern = regexp.MustCompile(`\{\{([\w-]+)\}\}`)

// Inherit references an entry in another spec file (or the same file when
// File is empty).
type Inherit struct {
	File string `yaml:"file"`
	Ref  string `yaml:"ref"`
}

// Inheritable is embedded by every spec entry kind. `source` and `inherit`
// are the two historical spellings of the same parent reference.
type Inheritable struct {
	Ref         string            `yaml:"ref"`
	Source      *Inherit          `yaml:"source"`
	Inherit     *Inherit          `yaml:"inherit"`
	Replacement map[string]string `yaml:"replacement"`
}

// RefName returns the entry's ref.
func (n *Inheritable) RefName() string { return n.Ref }

// ParentRef returns the parent reference, if any.
func (n *Inheritable) ParentRef() *Inherit {
	if n.Source != nil {
		return n.Source
	}
	return n.Inherit
}

// mergeReplacements layers the parent's replacements under the entry's own.
func (n *Inheritable) mergeReplacements(parent *Inheritable) {
	if len(parent.Replacement) == 0 {
		return
	}
	if n.Replacement == nil {
		n.Replacement = make(map[string]string, len(parent.Replacement))
	}
	for k, v := range parent.Replacement {
		if _, ok := n.Replacement[k]; !ok {
			n.Replacement[k] = v
		}
	}
}

// replace substitutes the entry's {{key}} placeholders in s. Placeholders
// without a replacement are left untouched.
func (n *Inheritable) replace(s string) string {
	if len(n.Replacement) == 0 {
		return s
	}
	return replacementPattern.ReplaceAllStringFunc(s, func(match string) string {
		key := replacementPattern.FindStringSubmatch(match)[1]
		if v, ok := n.Replacement[key]; ok {
			return v
		}
		return match
	})
}

// entry is the contract a spec entry kind fulfills for the generic
// registry: identity, parent lookup, field merging, and template expansion.
type entry interface {
	RefName() string
	ParentRef() *Inherit
	base() *Inheritable
	mergeFrom(parent entry)
	substitute()
}

// gizaFile is one registered spec file.
type gizaFile[T entry] struct {
	path    string
	text    string
	entries []T
}

// registry is the shared per-category bookkeeping: registered files keyed by
// base name plus the inheritance dependency graph. Edges point from a child
// file to the file it inherits from, so Predecessors of a file are its
// dependents.
type registry[T entry] struct {
	name  string
	cfg   *config.Project
	files map[string]*gizaFile[T]
	dg    *graph.Digraph[string]
}

func newRegistry[T entry](name string, cfg *config.Project) registry[T] {
	return registry[T]{
		name:  name,
		cfg:   cfg,
		files: make(map[string]*gizaFile[T]),
		dg:    graph.New[string](),
	}
}

func (r *registry[T]) Name() string { return r.name }

func (r *registry[T]) Len() int { return len(r.files) }

func (r *registry[T]) Parse(path, text string) (any, string, []docmodel.Diagnostic, error) {
	var diagnostics []docmodel.Diagnostic
	if text == "" {
		var err error
		text, diagnostics, err = r.cfg.Read(path)
		if err != nil {
			return nil, "", nil, forgeerrors.Wrap(err, forgeerrors.CategoryFileSystem, forgeerrors.SeverityError,
				"cannot read "+path)
		}
	} else {
		var diags []docmodel.Diagnostic
		text, diags = r.cfg.Substitute(text)
		diagnostics = append(diagnostics, diags...)
	}

	var entries []T
	if err := yaml.Unmarshal([]byte(text), &entries); err != nil {
		diagnostics = append(diagnostics, docmodel.ErrorDiagnostic(err.Error(), 0))
	}
	return entries, text, diagnostics, nil
}

func (r *registry[T]) Add(path, text string, entries any) {
	fileName := filepath.Base(path)
	es, _ := entries.([]T)
	r.files[fileName] = &gizaFile[T]{path: path, text: text, entries: es}

	r.dg.RemoveNode(fileName)
	for _, e := range es {
		if parent := e.ParentRef(); parent != nil && parent.File != "" && parent.File != fileName {
			r.dg.AddEdge(fileName, parent.File)
		}
	}
}

func (r *registry[T]) Remove(fileName string) {
	delete(r.files, fileName)
	r.dg.RemoveNode(fileName)
}

func (r *registry[T]) Dependents(fileName string) []string {
	return r.dg.Predecessors(fileName)
}

func (r *registry[T]) PathOf(fileName string) (string, bool) {
	f, ok := r.files[fileName]
	if !ok {
		return "", false
	}
	return f.path, true
}

func (r *registry[T]) ReifyAll(allDiagnostics map[string][]docmodel.Diagnostic) []*ReifiedFile {
	out := make([]*ReifiedFile, 0, len(r.files))
	for fileName := range r.files {
		reified, err := r.ReifyFile(fileName, allDiagnostics)
		if err != nil {
			continue
		}
		out = append(out, reified)
	}
	return out
}

func (r *registry[T]) ReifyFile(fileName string, allDiagnostics map[string][]docmodel.Diagnostic) (*ReifiedFile, error) {
	f, ok := r.files[fileName]
	if !ok {
		return nil, forgeerrors.Newf(forgeerrors.CategoryBuild, forgeerrors.SeverityError,
			"no file found in registry: %s", fileName)
	}
	var diagnostics []docmodel.Diagnostic
	for _, e := range f.entries {
		r.reifyEntry(e, fileName, &diagnostics, 0)
		e.substitute()
	}
	if len(diagnostics) > 0 {
		allDiagnostics[f.path] = append(allDiagnostics[f.path], diagnostics...)
	}
	return &ReifiedFile{FileName: fileName, Path: f.path, Text: f.text, entries: f.entries}, nil
}

// reifyEntry resolves an entry's inheritance chain, merging each parent's
// fields into the child.
func (r *registry[T]) reifyEntry(e T, fileName string, diagnostics *[]docmodel.Diagnostic, depth int) {
	parentRef := e.ParentRef()
	if parentRef == nil {
		return
	}
	if depth >= maxInheritanceDepth {
		*diagnostics = append(*diagnostics, docmodel.ErrorDiagnostic(
			fmt.Sprintf("inheritance depth exceeded resolving %q", e.RefName()), 0))
		return
	}

	parentFile := parentRef.File
	if parentFile == "" {
		parentFile = fileName
	}
	pf, ok := r.files[parentFile]
	if !ok {
		*diagnostics = append(*diagnostics, docmodel.ErrorDiagnostic(
			fmt.Sprintf("cannot inherit from unregistered file %q", parentFile), 0))
		return
	}
	for _, candidate := range pf.entries {
		if candidate.RefName() == parentRef.Ref {
			r.reifyEntry(candidate, parentFile, diagnostics, depth+1)
			e.mergeFrom(candidate)
			e.base().mergeReplacements(candidate.base())
			return
		}
	}
	*diagnostics = append(*diagnostics, docmodel.ErrorDiagnostic(
		fmt.Sprintf("cannot find ref %q in %s", parentRef.Ref, parentFile), 0))
}

// slug converts a heading title to its anchor id.
func slug(title string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

package rst

import (
	"fmt"
	"os"
	"strings"

	"git.home.luguber.info/inful/docforge/internal/docmodel"
	"git.home.luguber.info/inful/docforge/internal/util/sets"
)

// Kinds whose frames never receive popped children.
var noChildren = sets.New(KindSubstitutionReference)

// Block-level container kinds suppressed entirely by the inline visitor
// variant. Their children still flow into the nearest surviving frame.
var blockKinds = sets.New(
	KindParagraph,
	KindBlockQuote,
	KindBulletList,
	KindEnumeratedList,
	KindListItem,
	KindDefinition,
	KindDefinitionList,
	KindDefinitionListItem,
	KindTerm,
	KindFieldList,
	KindCode,
	KindDirective,
)

// Output path patterns synthesized by the legacy YAML pipeline. Includes
// pointing at them are permitted to not yet exist on disk.
var generatedPatterns = []string{
	"steps/*.rst",
	"extracts/*.rst",
	"release/*.rst",
	"option/*.rst",
	"toc/*.rst",
	"apiargs/*.rst",
	"includes/hash.rst",
}

// Visitor consumes a parse-event tree and builds the generic document tree,
// collecting diagnostics, static assets, and deferred tasks along the way.
// It keeps an explicit stack of open frames, one per node under
// construction; the synthetic root frame is never popped.
type Visitor struct {
	root    string // project source root
	docPath string // filesystem path of the document being built
	inline  bool

	stack       []*docmodel.Node
	diagnostics []docmodel.Diagnostic
	assets      docmodel.AssetSet
	pending     []*docmodel.PendingTask
}

// NewVisitor creates a visitor for one source unit.
func NewVisitor(root, docPath string) *Visitor {
	return &Visitor{
		root:    root,
		docPath: docPath,
		assets:  make(docmodel.AssetSet),
	}
}

// NewInlineVisitor creates the visitor variant that suppresses block-level
// container kinds, for markup embedded inside another node's field.
func NewInlineVisitor(root, docPath string) *Visitor {
	v := NewVisitor(root, docPath)
	v.inline = true
	return v
}

// Walk consumes the event tree rooted at a document event and returns the
// document tree root.
func (v *Visitor) Walk(root *Event) *docmodel.Node {
	v.walkNode(root, nil)
	if len(v.stack) == 0 {
		return &docmodel.Node{Type: "root"}
	}
	return v.stack[0]
}

func (v *Visitor) top() *docmodel.Node {
	return v.stack[len(v.stack)-1]
}

func (v *Visitor) push(n *docmodel.Node) {
	v.stack = append(v.stack, n)
}

// pop closes the top frame and attaches it to its parent. Term frames donate
// their children to the parent's term field instead; parents in the
// noChildren set swallow the popped frame.
func (v *Visitor) pop() {
	popped := v.top()
	v.stack = v.stack[:len(v.stack)-1]
	top := v.top()
	if popped.Type == KindTerm {
		top.Term = popped.Children
		return
	}
	if noChildren.Has(top.Type) {
		return
	}
	top.Children = append(top.Children, popped)
}

func (v *Visitor) walkChildren(ev *Event) {
	for _, c := range ev.Children {
		v.walkNode(c, ev)
	}
}

func (v *Visitor) walkNode(ev, parent *Event) {
	if v.inline && blockKinds.Has(ev.Kind) {
		v.walkChildren(ev)
		return
	}

	switch ev.Kind {
	case KindSystemMessage:
		// Parser-reported problems of warning severity or worse become
		// diagnostics; the message subtree never enters the document.
		if ev.Level >= 2 {
			sev := docmodel.SeverityWarning
			if ev.Level >= 3 {
				sev = docmodel.SeverityError
			}
			msg := ev.Text()
			if len(ev.Children) > 0 {
				msg = ev.Children[0].Text()
			}
			v.diagnostics = append(v.diagnostics, docmodel.NewDiagnostic(sev, msg, ev.Line))
		}
		return
	case KindDefinition, KindFieldList:
		// Transparent wrappers: no frame, children attach to the current top.
		v.walkChildren(ev)
		return
	case KindDocument:
		v.push(&docmodel.Node{Type: "root"})
		v.walkChildren(ev)
		return
	}

	doc := &docmodel.Node{Type: ev.Kind, Position: docmodel.Position{Line: ev.Line}}

	switch ev.Kind {
	case KindField:
		// A key/value option pair for the enclosing frame.
		if len(ev.Children) >= 2 {
			if v.top().Options == nil {
				v.top().Options = make(map[string]string)
			}
			v.top().Options[ev.Children[0].Text()] = ev.Children[1].Text()
		}
		return
	case KindCode:
		// Already resolved by the frontend; append as a leaf.
		doc.Lang = ev.Lang
		doc.Copyable = ev.Copyable
		doc.EmphasizeLines = ev.EmphasizeLines
		doc.Value = ev.Value
		v.top().Children = append(v.top().Children, doc)
		return
	case KindBlockQuote:
		// Accidental indentation. Flag it, but keep the children in the
		// enclosing frame so document structure survives.
		line := ev.Line
		if len(ev.Children) > 0 {
			line = ev.Children[0].Line
		}
		v.diagnostics = append(v.diagnostics, docmodel.ErrorDiagnostic("Unexpected indentation", line))
		v.walkChildren(ev)
		return
	case KindDirective:
		v.walkDirective(ev, doc)
		return
	}

	switch ev.Kind {
	case KindText:
		doc.Type = "text"
		doc.Value = ev.Value
	case KindRole:
		doc.Name = ev.Name
		doc.Label = ev.Label
		doc.Target = ev.Target
		if ev.Name == "doc" {
			v.validateDocRole(ev)
		}
	case KindTarget:
		doc.IDs = ev.IDs
		doc.RefURI = ev.RefURI
	case KindDefinitionList:
		doc.Type = "definitionList"
	case KindDefinitionListItem:
		doc.Type = "definitionListItem"
	case KindBulletList:
		doc.Type = "list"
	case KindEnumeratedList:
		doc.Type = "list"
		doc.Ordered = true
	case KindListItem:
		doc.Type = "listItem"
	case KindTitle:
		doc.Type = "heading"
		// The anchor id lives on the enclosing section.
		if parent != nil && len(parent.IDs) > 0 {
			doc.ID = parent.IDs[0]
		}
	case KindReference:
		doc.RefURI = ev.RefURI
		doc.RefName = ev.RefName
	case KindSubstitutionDefinition:
		if len(ev.Names) > 0 {
			doc.Name = ev.Names[0]
		}
	case KindSubstitutionReference:
		// A childless leaf; any fallback content is dropped on pop.
		doc.Name = ev.RefName
	}

	v.push(doc)
	v.walkChildren(ev)
	v.pop()
}

// walkDirective applies directive-specific semantics. The directive's
// argument is built with a child visitor sharing this visitor's
// accumulators; content children are only visited when the directive is
// kept.
func (v *Visitor) walkDirective(ev *Event, doc *docmodel.Node) {
	doc.Name = ev.Name
	options := make(map[string]string, len(ev.Options))
	for k, val := range ev.Options {
		options[k] = val
	}

	children := ev.Children
	doc.Argument = []*docmodel.Node{}
	if len(children) > 0 && children[0].Kind == KindDirectiveArgument {
		doc.Argument = v.captureChildren(children[0])
		children = children[1:]
	}

	argText := ""
	if len(doc.Argument) > 0 && doc.Argument[0].Type == "text" {
		argText = doc.Argument[0].Value
	}

	if !v.handleDirective(ev, doc, argText, options) {
		return
	}

	if len(options) > 0 {
		doc.Options = options
	}
	v.push(doc)
	for _, c := range children {
		v.walkNode(c, ev)
	}
	v.pop()
}

// handleDirective reports whether the directive node should be kept in the
// tree (pushed as a frame with its content visited).
func (v *Visitor) handleDirective(ev *Event, doc *docmodel.Node, argText string, options map[string]string) bool {
	switch ev.Name {
	case "todo":
		msg := "TODO"
		if argText != "" {
			msg += ": " + argText
		}
		v.diagnostics = append(v.diagnostics, docmodel.InfoDiagnostic(msg, ev.Line))
		return false

	case "figure", "image":
		if argText == "" {
			v.errorf(ev.Line, "%q expected a path argument", ev.Name)
			return true
		}
		asset, err := v.addAsset(argText, true)
		if err != nil {
			v.errorf(ev.Line, "%q could not open %q: %v", ev.Name, argText, err)
			return true
		}
		v.pending = append(v.pending, &docmodel.PendingTask{
			Kind:  docmodel.TaskChecksum,
			Node:  doc,
			Asset: asset,
		})
		return true

	case "literalinclude":
		// The node's final form is produced entirely by the deferred task,
		// so it bypasses the keep path: on success it is appended as a leaf
		// for the task to rewrite, on failure it is dropped.
		if argText == "" {
			v.errorf(ev.Line, `"literalinclude" expected a path argument`)
			return false
		}
		asset, err := v.addAsset(argText, false)
		if err != nil {
			v.errorf(ev.Line, `"literalinclude" could not open %q: %v`, argText, err)
			return false
		}
		if len(options) > 0 {
			doc.Options = options
		}
		v.top().Children = append(v.top().Children, doc)
		v.pending = append(v.pending, &docmodel.PendingTask{
			Kind:    docmodel.TaskInclude,
			Node:    doc,
			Asset:   asset,
			Options: options,
		})
		return false

	case "include":
		if argText == "" {
			v.errorf(ev.Line, `"include" expected a path argument`)
			return true
		}
		fileid, fullPath, err := rerootPath(argText, v.docPath, v.root)
		if err != nil {
			v.errorf(ev.Line, "%q could not open %q: %v", ev.Name, argText, err)
			return true
		}
		if !isFile(fullPath) && !isGeneratedTarget(fileid) {
			v.errorf(ev.Line, "%q could not open %q: No such file exists", ev.Name, argText)
		}
		return true
	}

	return true
}

// validateDocRole checks that a doc role's target document exists.
func (v *Visitor) validateDocRole(ev *Event) {
	target := ev.Target
	if ext := strings.LastIndexByte(target, '.'); ext > strings.LastIndexByte(target, '/') {
		target = target[:ext]
	}
	target += ".txt"
	_, fullPath, err := rerootPath(target, v.docPath, v.root)
	if err != nil || !isFile(fullPath) {
		v.errorf(ev.Line, "%q could not open %q: No such file exists", ev.Name, fullPath)
	}
}

// addAsset resolves a referenced path to a project-relative asset and
// records it in the page's asset set.
func (v *Visitor) addAsset(target string, upload bool) (*docmodel.StaticAsset, error) {
	fileid, fullPath, err := rerootPath(target, v.docPath, v.root)
	if err != nil {
		return nil, err
	}
	asset := docmodel.LoadAsset(fileid, fullPath, upload)
	v.assets.Add(asset)
	return asset, nil
}

// captureChildren builds a detached child tree (used for directive
// arguments) while sharing this visitor's diagnostics, assets, and tasks.
func (v *Visitor) captureChildren(ev *Event) []*docmodel.Node {
	saved := v.stack
	root := &docmodel.Node{Type: "root"}
	v.stack = []*docmodel.Node{root}
	v.walkChildren(ev)
	v.stack = saved
	return root.Children
}

func (v *Visitor) errorf(line int, format string, args ...any) {
	v.diagnostics = append(v.diagnostics, docmodel.ErrorDiagnostic(fmt.Sprintf(format, args...), line))
}

func isGeneratedTarget(id docmodel.FileId) bool {
	for _, pattern := range generatedPatterns {
		if id.Match(pattern) {
			return true
		}
	}
	return false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

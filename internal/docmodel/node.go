package docmodel

import (
	"fmt"
	"sort"
	"strings"
)

// Node is one element of the generic document tree. The same record type
// represents every node kind; kind-specific fields are left zero for kinds
// that do not use them, and JSON serialization omits them.
type Node struct {
	Type     string            `json:"type"`
	Position Position          `json:"position"`
	Children []*Node           `json:"children,omitempty"`
	Argument []*Node           `json:"argument,omitempty"`
	Options  map[string]string `json:"options,omitempty"`

	// Directive, role, and substitution nodes.
	Name string `json:"name,omitempty"`

	// Text and code leaves.
	Value          string `json:"value,omitempty"`
	Lang           string `json:"lang,omitempty"`
	Copyable       bool   `json:"copyable,omitempty"`
	EmphasizeLines string `json:"emphasize_lines,omitempty"`

	// Roles and references.
	Label   string `json:"label,omitempty"`
	Target  string `json:"target,omitempty"`
	RefURI  string `json:"refuri,omitempty"`
	RefName string `json:"refname,omitempty"`

	// Headings, targets, lists, definition list items.
	ID      string   `json:"id,omitempty"`
	IDs     []string `json:"ids,omitempty"`
	Ordered bool     `json:"ordered,omitempty"`
	Term    []*Node  `json:"term,omitempty"`
}

// Line returns the node's starting source line.
func (n *Node) Line() int { return n.Position.Line }

// Text returns the concatenated textual content beneath the node.
func (n *Node) Text() string {
	if n.Type == "text" {
		return n.Value
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.Text())
	}
	return sb.String()
}

// Dive yields the node and every descendant (children and argument), in
// depth-first order.
func (n *Node) Dive(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Dive(fn)
	}
	for _, c := range n.Argument {
		c.Dive(fn)
	}
}

// TestingString renders a node as a compact XML-ish string. Only used to
// write legible tree assertions in tests.
func TestingString(n *Node) string {
	var attrs []string
	appendAttr := func(k, v string) {
		if v != "" {
			attrs = append(attrs, fmt.Sprintf("%s=%q", k, v))
		}
	}
	appendAttr("name", n.Name)
	appendAttr("lang", n.Lang)
	if n.Copyable {
		attrs = append(attrs, `copyable="true"`)
	}
	appendAttr("label", n.Label)
	appendAttr("target", n.Target)
	appendAttr("refuri", n.RefURI)
	appendAttr("refname", n.RefName)
	appendAttr("id", n.ID)
	if len(n.IDs) > 0 {
		appendAttr("ids", strings.Join(n.IDs, ","))
	}
	if n.Ordered {
		attrs = append(attrs, `ordered="true"`)
	}
	keys := make([]string, 0, len(n.Options))
	for k := range n.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, fmt.Sprintf("%s=%q", k, n.Options[k]))
	}

	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(n.Type)
	if len(attrs) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(attrs, " "))
	}
	sb.WriteByte('>')
	for _, a := range n.Argument {
		sb.WriteString(TestingString(a))
	}
	if n.Value != "" {
		sb.WriteString(n.Value)
	} else {
		for _, c := range n.Children {
			sb.WriteString(TestingString(c))
		}
	}
	fmt.Fprintf(&sb, "</%s>", n.Type)
	return sb.String()
}

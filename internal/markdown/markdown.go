// Package markdown is the Markdown frontend: it parses CommonMark sources
// with Goldmark and translates the Goldmark AST into the parse-event
// vocabulary the tree builder consumes, so .md documents flow through the
// same pipeline as any other markup.
package markdown

import (
	"os"
	"strings"

	"git.home.luguber.info/inful/docforge/internal/rst"
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// Parser implements rst.Parser for Markdown sources.
type Parser struct {
	md goldmark.Markdown
}

// New creates a Markdown frontend.
func New() *Parser {
	return &Parser{md: goldmark.New()}
}

// Parse reads (or receives) the source text and returns its parse-event
// tree.
func (p *Parser) Parse(path string, text string) (*rst.Event, string, error) {
	if text == "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", err
		}
		text = string(data)
	}

	source := []byte(text)
	root := p.md.Parser().Parse(gmtext.NewReader(source))

	conv := converter{source: source}
	doc := &rst.Event{Kind: rst.KindDocument}
	doc.Children = conv.convertChildren(root)
	return doc, text, nil
}

type converter struct {
	source []byte
}

func (c *converter) convertChildren(n gmast.Node) []*rst.Event {
	var out []*rst.Event
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, c.convert(child)...)
	}
	return out
}

// convert translates one Goldmark node into zero or more events.
func (c *converter) convert(n gmast.Node) []*rst.Event {
	switch node := n.(type) {
	case *gmast.Heading:
		title := &rst.Event{Kind: rst.KindTitle, Line: c.lineOf(n)}
		title.Children = c.convertChildren(n)
		section := &rst.Event{
			Kind:     rst.KindSection,
			Line:     title.Line,
			IDs:      []string{headingSlug(title)},
			Children: []*rst.Event{title},
		}
		return []*rst.Event{section}

	case *gmast.Paragraph:
		return c.wrap(rst.KindParagraph, n)

	case *gmast.TextBlock:
		return c.convertChildren(n)

	case *gmast.Blockquote:
		return c.wrap(rst.KindBlockQuote, n)

	case *gmast.List:
		kind := rst.KindBulletList
		if node.IsOrdered() {
			kind = rst.KindEnumeratedList
		}
		return c.wrap(kind, n)

	case *gmast.ListItem:
		return c.wrap(rst.KindListItem, n)

	case *gmast.FencedCodeBlock:
		lang := string(node.Language(c.source))
		return []*rst.Event{{
			Kind:     rst.KindCode,
			Line:     c.lineOf(n),
			Lang:     lang,
			Copyable: true,
			Value:    c.blockText(n),
		}}

	case *gmast.CodeBlock:
		return []*rst.Event{{
			Kind:     rst.KindCode,
			Line:     c.lineOf(n),
			Copyable: true,
			Value:    c.blockText(n),
		}}

	case *gmast.Text:
		value := string(node.Segment.Value(c.source))
		if node.SoftLineBreak() || node.HardLineBreak() {
			value += "\n"
		}
		return []*rst.Event{{Kind: rst.KindText, Value: value}}

	case *gmast.String:
		return []*rst.Event{{Kind: rst.KindText, Value: string(node.Value)}}

	case *gmast.CodeSpan:
		return c.wrap(rst.KindLiteral, n)

	case *gmast.Emphasis:
		kind := rst.KindEmphasis
		if node.Level >= 2 {
			kind = rst.KindStrong
		}
		return c.wrap(kind, n)

	case *gmast.Link:
		ev := &rst.Event{
			Kind:   rst.KindReference,
			Line:   c.lineOf(n),
			RefURI: string(node.Destination),
		}
		ev.Children = c.convertChildren(n)
		return []*rst.Event{ev}

	case *gmast.AutoLink:
		url := string(node.URL(c.source))
		return []*rst.Event{{
			Kind:     rst.KindReference,
			RefURI:   url,
			Children: []*rst.Event{{Kind: rst.KindText, Value: url}},
		}}

	case *gmast.Image:
		// Images become image directives so they register as static assets.
		argument := &rst.Event{
			Kind:     rst.KindDirectiveArgument,
			Children: []*rst.Event{{Kind: rst.KindText, Value: string(node.Destination)}},
		}
		return []*rst.Event{{
			Kind:     rst.KindDirective,
			Line:     c.lineOf(n),
			Name:     "image",
			Children: []*rst.Event{argument},
		}}

	case *gmast.ThematicBreak, *gmast.HTMLBlock, *gmast.RawHTML:
		return nil
	}

	return c.convertChildren(n)
}

func (c *converter) wrap(kind string, n gmast.Node) []*rst.Event {
	ev := &rst.Event{Kind: kind, Line: c.lineOf(n)}
	ev.Children = c.convertChildren(n)
	return []*rst.Event{ev}
}

// blockText joins a block node's source lines.
func (c *converter) blockText(n gmast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(c.source))
	}
	return sb.String()
}

// lineOf computes a block node's zero-based starting line from its first
// source segment. Inline nodes report line 0.
func (c *converter) lineOf(n gmast.Node) int {
	if n.Type() != gmast.TypeBlock {
		return 0
	}
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return 0
	}
	start := lines.At(0).Start
	line := 0
	for _, b := range c.source[:start] {
		if b == '\n' {
			line++
		}
	}
	return line
}

// headingSlug derives an anchor id from a title's text content.
func headingSlug(title *rst.Event) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title.Text()) {
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

package markdown

import (
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/docforge/internal/docmodel"
	"git.home.luguber.info/inful/docforge/internal/rst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `# Hello World

Some *emphasis* and **bold** and ` + "`code`" + `.

- one
- two

1. first

> quoted

` + "```go\nfmt.Println(\"hi\")\n```" + `

[link](https://example.com)

![alt text](images/logo.png)
`

func parseSample(t *testing.T) *rst.Event {
	t.Helper()
	ev, text, err := New().Parse("guide.md", sample)
	require.NoError(t, err)
	assert.Equal(t, sample, text)
	require.Equal(t, rst.KindDocument, ev.Kind)
	return ev
}

func findKind(ev *rst.Event, kind string) *rst.Event {
	if ev.Kind == kind {
		return ev
	}
	for _, c := range ev.Children {
		if found := findKind(c, kind); found != nil {
			return found
		}
	}
	return nil
}

func TestParseHeading(t *testing.T) {
	ev := parseSample(t)
	section := findKind(ev, rst.KindSection)
	require.NotNil(t, section)
	assert.Equal(t, []string{"hello-world"}, section.IDs)
	title := section.Children[0]
	assert.Equal(t, rst.KindTitle, title.Kind)
	assert.Equal(t, "Hello World", title.Text())
}

func TestParseInlines(t *testing.T) {
	ev := parseSample(t)
	assert.NotNil(t, findKind(ev, rst.KindEmphasis))
	assert.NotNil(t, findKind(ev, rst.KindStrong))
	assert.NotNil(t, findKind(ev, rst.KindLiteral))

	link := findKind(ev, rst.KindReference)
	require.NotNil(t, link)
	assert.Equal(t, "https://example.com", link.RefURI)
	assert.Equal(t, "link", link.Text())
}

func TestParseLists(t *testing.T) {
	ev := parseSample(t)
	assert.NotNil(t, findKind(ev, rst.KindBulletList))
	assert.NotNil(t, findKind(ev, rst.KindEnumeratedList))
	assert.NotNil(t, findKind(ev, rst.KindListItem))
	assert.NotNil(t, findKind(ev, rst.KindBlockQuote))
}

func TestParseCodeFence(t *testing.T) {
	ev := parseSample(t)
	code := findKind(ev, rst.KindCode)
	require.NotNil(t, code)
	assert.Equal(t, "go", code.Lang)
	assert.True(t, code.Copyable)
	assert.Equal(t, "fmt.Println(\"hi\")\n", code.Value)
}

func TestParseImageBecomesDirective(t *testing.T) {
	ev := parseSample(t)
	image := findKind(ev, rst.KindDirective)
	require.NotNil(t, image)
	assert.Equal(t, "image", image.Name)
	arg := image.Children[0]
	assert.Equal(t, rst.KindDirectiveArgument, arg.Kind)
	assert.Equal(t, "images/logo.png", arg.Text())
}

func TestParseReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\n"), 0o644))

	ev, text, err := New().Parse(path, "")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n", text)
	assert.NotNil(t, findKind(ev, rst.KindSection))
}

// The frontend integrates with the tree builder: an image registers a
// static asset on the page.
func TestParsePageRegistersImageAsset(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "images", "logo.png"), []byte("png"), 0o644))
	docPath := filepath.Join(root, "guide.md")

	page, diagnostics, err := rst.ParsePage(New(), root, docPath, "![alt](images/logo.png)\n")
	require.NoError(t, err)
	assert.Empty(t, diagnostics)
	assert.Contains(t, page.StaticAssets, docmodel.FileId("images/logo.png"))
	require.Len(t, page.PendingTasks, 1)

	finished := page.Finish(docmodel.NewCache())
	assert.Empty(t, finished)
}

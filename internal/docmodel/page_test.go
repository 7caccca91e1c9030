package docmodel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileId(t *testing.T) {
	assert.Equal(t, FileId("a/b.txt"), NewFileId("a/b.txt"))
	assert.Equal(t, FileId("a/b.txt"), NewFileId("./a//b.txt"))
	assert.Equal(t, FileId("b.txt"), NewFileId("a/../b.txt"))
	assert.Equal(t, FileId("a/b.txt"), NewFileId("/a/b.txt"))
}

func TestFileIdMatch(t *testing.T) {
	assert.True(t, FileId("steps/foo.rst").Match("steps/*.rst"))
	assert.False(t, FileId("steps/sub/foo.rst").Match("steps/*.rst"))
	assert.False(t, FileId("extracts/foo.rst").Match("steps/*.rst"))
}

func TestPageOutputPath(t *testing.T) {
	// Authored documents publish under their source path.
	page := NewPage(filepath.Join("src", "index.txt"), "", nil)
	assert.Equal(t, filepath.Join("src", "index.txt"), page.OutputPath())

	// Legacy pages publish under <dir>/<category>/<name>, with the
	// category prefix stripped from the file name.
	page = NewPage(filepath.Join("src", "steps-install.yaml"), "", nil)
	page.Category = "steps"
	assert.Equal(t, filepath.Join("src", "steps", "install.yaml"), page.OutputPath())

	// An explicit output file name wins.
	page.OutputFilename = "custom"
	assert.Equal(t, filepath.Join("src", "steps", "custom"), page.OutputPath())
}

func TestPageFinishDrainsTasks(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "snippet.txt", "hello\n")

	page := NewPage("index.txt", "", &Node{Type: "root"})
	page.PendingTasks = []*PendingTask{
		includeTask("snippet.txt", path, nil),
		includeTask("missing.txt", filepath.Join(dir, "missing.txt"), nil),
	}

	diags := page.Finish(NewCache())
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Empty(t, page.PendingTasks)
}

func TestNodeTextAndDive(t *testing.T) {
	n := &Node{Type: "paragraph", Children: []*Node{
		{Type: "text", Value: "hello "},
		{Type: "strong", Children: []*Node{{Type: "text", Value: "world"}}},
	}}
	assert.Equal(t, "hello world", n.Text())

	var count int
	n.Dive(func(*Node) { count++ })
	assert.Equal(t, 4, count)
}

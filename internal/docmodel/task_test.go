package docmodel

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func checksumTask(id FileId, path string) *PendingTask {
	return &PendingTask{
		Kind:  TaskChecksum,
		Node:  &Node{Type: "directive", Name: "figure"},
		Asset: LoadAsset(id, path, true),
	}
}

func includeTask(id FileId, path string, options map[string]string) *PendingTask {
	return &PendingTask{
		Kind:    TaskInclude,
		Node:    &Node{Type: "directive", Name: "literalinclude", Options: options},
		Asset:   LoadAsset(id, path, false),
		Options: options,
	}
}

func TestChecksumTask(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "logo.png", "not really a png")
	sum := sha256.Sum256([]byte("not really a png"))

	cache := NewCache()
	task := checksumTask("images/logo.png", path)
	diags := task.Run(cache)
	assert.Empty(t, diags)
	assert.Equal(t, hex.EncodeToString(sum[:]), task.Node.Options["checksum"])
	assert.Equal(t, 1, cache.Version("images/logo.png", 0))
}

func TestChecksumTaskUsesCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "logo.png", "contents")

	cache := NewCache()
	first := checksumTask("images/logo.png", path)
	require.Empty(t, first.Run(cache))
	want := first.Node.Options["checksum"]

	// With the digest cached, the file is never touched again.
	require.NoError(t, os.Remove(path))
	second := checksumTask("images/logo.png", path)
	diags := second.Run(cache)
	assert.Empty(t, diags)
	assert.Equal(t, want, second.Node.Options["checksum"])
	assert.Equal(t, 1, cache.Version("images/logo.png", 0))
}

func TestChecksumTaskMissingFile(t *testing.T) {
	cache := NewCache()
	task := checksumTask("images/gone.png", filepath.Join(t.TempDir(), "gone.png"))
	diags := task.Run(cache)
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, 0, cache.Len())
}

func TestIncludeTaskWholeFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "snippet.go", "package main\n\nfunc main() {}\n")

	cache := NewCache()
	task := includeTask("snippet.go", path, nil)
	diags := task.Run(cache)
	assert.Empty(t, diags)
	assert.Equal(t, "code", task.Node.Type)
	assert.Equal(t, "go", task.Node.Lang) // from the file extension
	assert.False(t, task.Node.Copyable)
	assert.Equal(t, "package main\n\nfunc main() {}\n", task.Node.Value)
}

func TestIncludeTaskMarkers(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "snippet.py",
		"setup\n# start here\none\ntwo\n# end here\nteardown\n")

	cache := NewCache()
	task := includeTask("snippet.py", path, map[string]string{
		"start-after": "start here",
		"end-before":  "end here",
	})
	diags := task.Run(cache)
	assert.Empty(t, diags)
	// Strictly between the marker lines.
	assert.Equal(t, "one\ntwo", task.Node.Value)
}

func TestIncludeTaskEndBeforeSearchesAfterStart(t *testing.T) {
	dir := t.TempDir()
	// The end marker text also appears before the start marker; the scan
	// must begin at the start marker.
	path := writeFile(t, dir, "snippet.txt", "end\nstart\nbody\nend\ntail\n")

	cache := NewCache()
	task := includeTask("snippet.txt", path, map[string]string{
		"start-after": "start",
		"end-before":  "end",
	})
	diags := task.Run(cache)
	assert.Empty(t, diags)
	assert.Equal(t, "body", task.Node.Value)
}

func TestIncludeTaskMissingMarker(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "snippet.txt", "one\ntwo\n")

	cache := NewCache()
	task := includeTask("snippet.txt", path, map[string]string{"start-after": "nope"})
	diags := task.Run(cache)
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
	// The node is left untouched on failure.
	assert.Equal(t, "directive", task.Node.Type)
	assert.Equal(t, 0, cache.Len())
}

func TestIncludeTaskDedent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "snippet.yaml", "  a:\n    b: 1\n\n  c: 2\n")

	cache := NewCache()
	task := includeTask("snippet.yaml", path, map[string]string{"dedent": ""})
	diags := task.Run(cache)
	assert.Empty(t, diags)
	// Two spaces is the minimum indent over non-blank lines.
	assert.Equal(t, "a:\n  b: 1\n\nc: 2\n", task.Node.Value)
}

func TestIncludeTaskOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "snippet.txt", "hello\n")

	cache := NewCache()
	task := includeTask("snippet.txt", path, map[string]string{
		"language":        "console",
		"copyable":        "",
		"emphasize-lines": "1",
	})
	diags := task.Run(cache)
	assert.Empty(t, diags)
	assert.Equal(t, "console", task.Node.Lang)
	assert.True(t, task.Node.Copyable)
	assert.Equal(t, "1", task.Node.EmphasizeLines)
}

func TestIncludeTaskUsesCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "snippet.txt", "hello\n")
	options := map[string]string{"language": "text"}

	cache := NewCache()
	require.Empty(t, includeTask("snippet.txt", path, options).Run(cache))

	require.NoError(t, os.Remove(path))
	task := includeTask("snippet.txt", path, options)
	diags := task.Run(cache)
	assert.Empty(t, diags)
	assert.Equal(t, "code", task.Node.Type)
	assert.Equal(t, "hello\n", task.Node.Value)

	// A different option set is a different cache key and must miss.
	other := includeTask("snippet.txt", path, map[string]string{"language": "other"})
	diags = other.Run(cache)
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
}

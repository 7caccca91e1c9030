package config

import (
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/docforge/internal/docmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))
}

func TestOpenFindsConfigUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "name: guides\nsource: docs\n")
	sub := filepath.Join(root, "docs", "deeply", "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	cfg, diagnostics, err := Open(sub)
	require.NoError(t, err)
	assert.Empty(t, diagnostics)
	assert.Equal(t, "guides", cfg.Name)
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, filepath.Join(root, "docs"), cfg.SourcePath())
}

func TestOpenWithoutConfig(t *testing.T) {
	root := t.TempDir()
	cfg, diagnostics, err := Open(root)
	require.NoError(t, err)
	assert.Empty(t, diagnostics)
	assert.Equal(t, "untitled", cfg.Name)
	assert.Equal(t, filepath.Join(root, "source"), cfg.SourcePath())
}

func TestOpenMalformedConfig(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "name: [unclosed\n")

	_, diagnostics, err := Open(root)
	require.NoError(t, err)
	require.NotEmpty(t, diagnostics)
	assert.Equal(t, docmodel.SeverityError, diagnostics[0].Severity)
}

func TestSubstitute(t *testing.T) {
	cfg := &Project{Constants: map[string]string{"release": "3.4", "product-name": "MongoDB"}}

	out, diagnostics := cfg.Substitute("install {+product-name+} {+release+} today")
	assert.Empty(t, diagnostics)
	assert.Equal(t, "install MongoDB 3.4 today", out)
}

func TestSubstituteUndefinedConstant(t *testing.T) {
	cfg := &Project{Constants: map[string]string{}}

	out, diagnostics := cfg.Substitute("line one\nuse {+version+} here\n")
	require.Len(t, diagnostics, 1)
	assert.Equal(t, docmodel.SeverityError, diagnostics[0].Severity)
	assert.Equal(t, 1, diagnostics[0].Start.Line)
	// A zero-width space keeps the surrounding syntax intact.
	assert.Equal(t, "line one\nuse \u200b here\n", out)
}

func TestReadSubstitutes(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "release-install.yaml")
	require.NoError(t, os.WriteFile(path, []byte("code: tar -zxvf mongodb-{+release+}.tgz\n"), 0o644))

	cfg := &Project{Constants: map[string]string{"release": "3.4"}}
	text, diagnostics, err := cfg.Read(path)
	require.NoError(t, err)
	assert.Empty(t, diagnostics)
	assert.Equal(t, "code: tar -zxvf mongodb-3.4.tgz\n", text)
}

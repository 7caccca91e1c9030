package giza

import (
	"testing"

	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/docmodel"
	"git.home.luguber.info/inful/docforge/internal/rst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFactory is a PageFactory whose embedded parser turns prose into a
// single text node, which is all these tests need.
func fakeFactory(sourcePath string) PageFactory {
	return func() (*docmodel.Page, rst.EmbeddedParser) {
		page := docmodel.NewPage(sourcePath, "", nil)
		embedded := func(text string, lineno int, inline bool) []*docmodel.Node {
			return []*docmodel.Node{{Type: "text", Value: text}}
		}
		return page, embedded
	}
}

func mustAdd(t *testing.T, c Category, path, text string, allDiagnostics map[string][]docmodel.Diagnostic) {
	t.Helper()
	entries, raw, diagnostics, err := c.Parse(path, text)
	require.NoError(t, err)
	if allDiagnostics != nil {
		allDiagnostics[path] = append(allDiagnostics[path], diagnostics...)
	}
	c.Add(path, raw, entries)
}

func TestInferCategory(t *testing.T) {
	assert.Equal(t, "steps", InferCategory("source/steps-install.yaml"))
	assert.Equal(t, "release", InferCategory("release-install.yaml"))
	assert.Equal(t, "toc", InferCategory("toc.yaml"))
}

func TestReleaseToPages(t *testing.T) {
	cfg := &config.Project{Constants: map[string]string{"release": "3.4"}}
	c := NewReleaseCategory(cfg)

	mustAdd(t, c, "source/release-install.yaml", `
- ref: untar-release-osx-x86_64
  language: sh
  code: |
    tar -zxvf mongodb-macos-x86_64-{+release+}.tgz
- ref: install-ent-windows-default
  language: bat
  copyable: false
  code: |
    msiexec.exe /l*v mdbinstall.log /qb /i mongodb.msi
`, nil)

	allDiagnostics := make(map[string][]docmodel.Diagnostic)
	reified, err := c.ReifyFile("release-install.yaml", allDiagnostics)
	require.NoError(t, err)
	assert.Empty(t, allDiagnostics)

	pages := c.ToPages(fakeFactory(reified.Path), reified)
	require.Len(t, pages, 2)

	// One output page per platform, named after the entry ref.
	assert.Equal(t, "untar-release-osx-x86_64", pages[0].OutputFilename)
	assert.Equal(t, "source/release/untar-release-osx-x86_64", pages[0].OutputPath())
	assert.Equal(t,
		`<directive name="release_specification"><code lang="sh" copyable="true">tar -zxvf mongodb-macos-x86_64-3.4.tgz
</code></directive>`,
		docmodel.TestingString(pages[0].AST.Children[0]))

	assert.Equal(t, "install-ent-windows-default", pages[1].OutputFilename)
	code := pages[1].AST.Children[0].Children[0]
	assert.Equal(t, "bat", code.Lang)
	assert.False(t, code.Copyable)
}

func TestReleaseInheritance(t *testing.T) {
	cfg := &config.Project{}
	c := NewReleaseCategory(cfg)

	mustAdd(t, c, "source/release-base.yaml", `
- ref: untar
  language: sh
  code: tar -zxvf mongodb-{{edition}}.tgz
  replacement:
    edition: community
`, nil)
	mustAdd(t, c, "source/release-ent.yaml", `
- ref: untar-ent
  source:
    file: release-base.yaml
    ref: untar
  replacement:
    edition: enterprise
`, nil)

	// The child shows up as a dependent of its parent.
	assert.Equal(t, []string{"release-ent.yaml"}, c.Dependents("release-base.yaml"))
	assert.Empty(t, c.Dependents("release-ent.yaml"))

	allDiagnostics := make(map[string][]docmodel.Diagnostic)
	reified, err := c.ReifyFile("release-ent.yaml", allDiagnostics)
	require.NoError(t, err)
	assert.Empty(t, allDiagnostics)

	pages := c.ToPages(fakeFactory(reified.Path), reified)
	require.Len(t, pages, 1)
	code := pages[0].AST.Children[0].Children[0]
	// Inherited code with the child's replacement winning.
	assert.Equal(t, "tar -zxvf mongodb-enterprise.tgz", code.Value)
	assert.Equal(t, "sh", code.Lang)
}

func TestReifyUnregisteredFile(t *testing.T) {
	c := NewReleaseCategory(&config.Project{})
	_, err := c.ReifyFile("release-nope.yaml", map[string][]docmodel.Diagnostic{})
	assert.Error(t, err)
}

func TestReifyMissingParentRef(t *testing.T) {
	c := NewReleaseCategory(&config.Project{})
	mustAdd(t, c, "source/release-a.yaml", `
- ref: child
  inherit:
    file: release-a.yaml
    ref: nonexistent
`, nil)

	allDiagnostics := make(map[string][]docmodel.Diagnostic)
	_, err := c.ReifyFile("release-a.yaml", allDiagnostics)
	require.NoError(t, err)
	require.Len(t, allDiagnostics["source/release-a.yaml"], 1)
	assert.Equal(t, docmodel.SeverityError, allDiagnostics["source/release-a.yaml"][0].Severity)
}

func TestStepsToPages(t *testing.T) {
	cfg := &config.Project{}
	c := NewStepsCategory(cfg)

	mustAdd(t, c, "source/steps-parent.yaml", `
- ref: install
  title: Install {{product}}
  pre: Download the archive first.
  action:
    language: sh
    code: ./install.sh
  replacement:
    product: MongoDB
`, nil)
	mustAdd(t, c, "source/steps-run.yaml", `
- ref: install-ent
  source:
    file: steps-parent.yaml
    ref: install
- ref: verify
  title: Verify the installation
  action:
    - pre: Check the version.
      language: sh
      code: mongod --version
    - heading: Check the logs
      content: Inspect the log output.
`, nil)

	allDiagnostics := make(map[string][]docmodel.Diagnostic)
	reified, err := c.ReifyFile("steps-run.yaml", allDiagnostics)
	require.NoError(t, err)
	assert.Empty(t, allDiagnostics)

	pages := c.ToPages(fakeFactory(reified.Path), reified)
	require.Len(t, pages, 1)
	assert.Equal(t, "source/steps/run.yaml", pages[0].OutputPath())

	stepsNode := pages[0].AST.Children[0]
	assert.Equal(t, "steps", stepsNode.Name)
	require.Len(t, stepsNode.Children, 2)

	// First step inherited everything from the parent file, with the
	// parent's replacement applied.
	first := stepsNode.Children[0]
	assert.Equal(t, "step", first.Name)
	section := first.Children[0]
	heading := section.Children[0]
	assert.Equal(t, "install-mongodb", heading.ID)
	assert.Equal(t, "Install MongoDB", heading.Children[0].Value)
	assert.Equal(t, "Download the archive first.", section.Children[1].Value)
	code := section.Children[2]
	assert.Equal(t, "code", code.Type)
	assert.Equal(t, "./install.sh", code.Value)
	assert.True(t, code.Copyable)

	// Second step uses the sequence spelling of action, with a heading
	// opening a nested subsection.
	second := stepsNode.Children[1].Children[0]
	require.Len(t, second.Children, 4)
	sub := second.Children[3]
	assert.Equal(t, "section", sub.Type)
	assert.Equal(t, "check-the-logs", sub.Children[0].ID)
}

func TestExtractsToPages(t *testing.T) {
	cfg := &config.Project{}
	c := NewExtractsCategory(cfg)

	mustAdd(t, c, "source/extracts-intro.yaml", `
- ref: about
  title: About
  style: normal
  content: Some prose.
`, nil)

	allDiagnostics := make(map[string][]docmodel.Diagnostic)
	reified, err := c.ReifyFile("extracts-intro.yaml", allDiagnostics)
	require.NoError(t, err)

	pages := c.ToPages(fakeFactory(reified.Path), reified)
	require.Len(t, pages, 1)
	assert.Equal(t, "source/extracts/about", pages[0].OutputPath())

	directive := pages[0].AST.Children[0]
	assert.Equal(t, "extract", directive.Name)
	assert.Equal(t, "normal", directive.Options["style"])
	assert.Equal(t, "about", directive.Children[0].ID)
	assert.Equal(t, "Some prose.", directive.Children[1].Value)
}

func TestRegistryRemove(t *testing.T) {
	c := NewReleaseCategory(&config.Project{})
	mustAdd(t, c, "source/release-a.yaml", "- ref: a\n  code: x\n", nil)
	require.Equal(t, 1, c.Len())

	c.Remove("release-a.yaml")
	assert.Equal(t, 0, c.Len())
	_, ok := c.PathOf("release-a.yaml")
	assert.False(t, ok)
}

func TestParseDecodeErrorIsDiagnostic(t *testing.T) {
	c := NewReleaseCategory(&config.Project{})
	_, _, diagnostics, err := c.Parse("source/release-bad.yaml", "not: [a, sequence\n")
	require.NoError(t, err)
	require.NotEmpty(t, diagnostics)
	assert.Equal(t, docmodel.SeverityError, diagnostics[0].Severity)
}

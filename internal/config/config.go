// Package config loads the project configuration file (docforge.yaml) and
// performs {+name+} source-constant substitution over source text.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/docforge/internal/docmodel"
	forgeerrors "git.home.luguber.info/inful/docforge/internal/errors"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project configuration file searched for upward from
// the project root.
const ConfigFileName = "docforge.yaml"

var constantPattern = regexp.MustCompile(`\{\+([\w-]+)\+\}`)

// Project is the resolved project configuration.
type Project struct {
	Name      string            `yaml:"name"`
	Source    string            `yaml:"source"`
	Constants map[string]string `yaml:"constants"`

	Root string `yaml:"-"`
}

// SourcePath returns the directory holding the project's source files.
func (p *Project) SourcePath() string {
	return filepath.Join(p.Root, p.Source)
}

// ConfigPath returns the path of the configuration file itself.
func (p *Project) ConfigPath() string {
	return filepath.Join(p.Root, ConfigFileName)
}

// Open locates and loads the project configuration, walking up from root
// until a configuration file is found. A project with no configuration file
// is legal and yields an untitled project rooted at the given directory.
// Decoding failures are returned as diagnostics against the config file.
func Open(root string) (*Project, []docmodel.Diagnostic, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, forgeerrors.Wrap(err, forgeerrors.CategoryConfig, forgeerrors.SeverityFatal, "cannot resolve project root")
	}

	var diagnostics []docmodel.Diagnostic
	for dir := abs; ; dir = filepath.Dir(dir) {
		data, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
		if err == nil {
			cfg := Project{Source: "source"}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				diagnostics = append(diagnostics, docmodel.ErrorDiagnostic(err.Error(), 0))
				break
			}
			cfg.Root = dir
			diagnostics = append(diagnostics, cfg.renderConstants()...)
			return &cfg, diagnostics, nil
		}
		if !os.IsNotExist(err) {
			return nil, nil, forgeerrors.Wrap(err, forgeerrors.CategoryConfig, forgeerrors.SeverityFatal, "cannot read configuration")
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}

	return &Project{Root: abs, Name: "untitled", Source: "source"}, diagnostics, nil
}

// renderConstants substitutes constants into each other so a constant may
// reference constants defined before it.
func (p *Project) renderConstants() []docmodel.Diagnostic {
	if len(p.Constants) == 0 {
		return nil
	}
	var diagnostics []docmodel.Diagnostic
	rendered := make(map[string]string, len(p.Constants))
	for k, v := range p.Constants {
		result, diags := p.Substitute(v)
		diagnostics = append(diagnostics, diags...)
		rendered[k] = result
	}
	p.Constants = rendered
	return diagnostics
}

// Read loads a source file and substitutes all constant placeholders.
func (p *Project) Read(path string) (string, []docmodel.Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	text, diagnostics := p.Substitute(string(data))
	return text, diagnostics, nil
}

// Substitute replaces every {+name+} placeholder with the configured
// constant. An undefined constant yields an error diagnostic at the
// placeholder's line and a zero-width space so surrounding syntax survives.
func (p *Project) Substitute(source string) (string, []docmodel.Diagnostic) {
	var diagnostics []docmodel.Diagnostic
	out := constantPattern.ReplaceAllStringFunc(source, func(match string) string {
		name := constantPattern.FindStringSubmatch(match)[1]
		if value, ok := p.Constants[name]; ok {
			return value
		}
		line := strings.Count(source[:strings.Index(source, match)], "\n")
		diagnostics = append(diagnostics, docmodel.ErrorDiagnostic(
			fmt.Sprintf("%s not defined as a source constant", name), line))
		return "\u200b"
	})
	return out, diagnostics
}

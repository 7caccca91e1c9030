package giza

import (
	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/docmodel"
)

// ReleaseSpecification is one entry of a release-*.yaml file: a per-platform
// installation command.
type ReleaseSpecification struct {
	Inheritable `yaml:",inline"`
	Pre         string `yaml:"pre"`
	Language    string `yaml:"language"`
	Code        string `yaml:"code"`
	Copyable    *bool  `yaml:"copyable"`
}

func (r *ReleaseSpecification) base() *Inheritable { return &r.Inheritable }

func (r *ReleaseSpecification) mergeFrom(parent entry) {
	p, ok := parent.(*ReleaseSpecification)
	if !ok {
		return
	}
	if r.Pre == "" {
		r.Pre = p.Pre
	}
	if r.Language == "" {
		r.Language = p.Language
	}
	if r.Code == "" {
		r.Code = p.Code
	}
	if r.Copyable == nil {
		r.Copyable = p.Copyable
	}
}

func (r *ReleaseSpecification) substitute() {
	r.Pre = r.replace(r.Pre)
	r.Code = r.replace(r.Code)
}

type releaseCategory struct {
	registry[*ReleaseSpecification]
}

// NewReleaseCategory creates the category for release-*.yaml files.
func NewReleaseCategory(cfg *config.Project) Category {
	return &releaseCategory{registry: newRegistry[*ReleaseSpecification]("release", cfg)}
}

// ToPages fans a release file out into one page per specification,
// published under release/<ref>, each holding a single code block.
func (c *releaseCategory) ToPages(factory PageFactory, reified *ReifiedFile) []*docmodel.Page {
	specs, _ := reified.entries.([]*ReleaseSpecification)
	pages := make([]*docmodel.Page, 0, len(specs))
	for _, spec := range specs {
		page, embedded := factory()
		page.Category = c.name
		page.OutputFilename = spec.Ref

		lang := spec.Language
		if lang == "" {
			lang = "sh"
		}
		copyable := spec.Copyable == nil || *spec.Copyable

		directive := &docmodel.Node{Type: "directive", Name: "release_specification"}
		directive.Children = append(directive.Children, embedBlock(embedded, spec.Pre)...)
		directive.Children = append(directive.Children, &docmodel.Node{
			Type:     "code",
			Lang:     lang,
			Copyable: copyable,
			Value:    spec.Code,
		})

		page.AST = &docmodel.Node{Type: "root", Children: []*docmodel.Node{directive}}
		pages = append(pages, page)
	}
	return pages
}

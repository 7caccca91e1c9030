package giza

import (
	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/docmodel"
)

// Extract is one entry of an extracts-*.yaml file: a reusable fragment of
// prose published as its own include target.
type Extract struct {
	Inheritable `yaml:",inline"`
	Title       string `yaml:"title"`
	Style       string `yaml:"style"`
	Content     string `yaml:"content"`
	Post        string `yaml:"post"`
}

func (e *Extract) base() *Inheritable { return &e.Inheritable }

func (e *Extract) mergeFrom(parent entry) {
	p, ok := parent.(*Extract)
	if !ok {
		return
	}
	if e.Title == "" {
		e.Title = p.Title
	}
	if e.Style == "" {
		e.Style = p.Style
	}
	if e.Content == "" {
		e.Content = p.Content
	}
	if e.Post == "" {
		e.Post = p.Post
	}
}

func (e *Extract) substitute() {
	e.Title = e.replace(e.Title)
	e.Content = e.replace(e.Content)
	e.Post = e.replace(e.Post)
}

type extractsCategory struct {
	registry[*Extract]
}

// NewExtractsCategory creates the category for extracts-*.yaml files.
func NewExtractsCategory(cfg *config.Project) Category {
	return &extractsCategory{registry: newRegistry[*Extract]("extracts", cfg)}
}

// ToPages renders one page per extract entry, published under
// extracts/<ref>.
func (c *extractsCategory) ToPages(factory PageFactory, reified *ReifiedFile) []*docmodel.Page {
	extracts, _ := reified.entries.([]*Extract)
	pages := make([]*docmodel.Page, 0, len(extracts))
	for _, extract := range extracts {
		page, embedded := factory()
		page.Category = c.name
		page.OutputFilename = extract.Ref

		directive := &docmodel.Node{Type: "directive", Name: "extract"}
		if extract.Style != "" {
			directive.Options = map[string]string{"style": extract.Style}
		}
		if extract.Title != "" {
			heading := &docmodel.Node{Type: "heading", ID: slug(extract.Title)}
			heading.Children = embedInline(embedded, extract.Title)
			directive.Children = append(directive.Children, heading)
		}
		directive.Children = append(directive.Children, embedBlock(embedded, extract.Content)...)
		directive.Children = append(directive.Children, embedBlock(embedded, extract.Post)...)

		page.AST = &docmodel.Node{Type: "root", Children: []*docmodel.Node{directive}}
		pages = append(pages, page)
	}
	return pages
}

package giza

import (
	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/docmodel"
	"git.home.luguber.info/inful/docforge/internal/rst"
	"gopkg.in/yaml.v3"
)

// Action is one concrete action within a step: an optional heading, prose,
// and a command block.
type Action struct {
	Heading  string `yaml:"heading"`
	Pre      string `yaml:"pre"`
	Language string `yaml:"language"`
	Code     string `yaml:"code"`
	Content  string `yaml:"content"`
	Post     string `yaml:"post"`
	Copyable *bool  `yaml:"copyable"`
}

// ActionList accepts both the single-mapping and the sequence spelling the
// legacy format allows for `action`.
type ActionList []Action

func (l *ActionList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		var one Action
		if err := value.Decode(&one); err != nil {
			return err
		}
		*l = ActionList{one}
		return nil
	}
	var many []Action
	if err := value.Decode(&many); err != nil {
		return err
	}
	*l = many
	return nil
}

// Step is one entry of a steps-*.yaml file.
type Step struct {
	Inheritable `yaml:",inline"`
	Title       string     `yaml:"title"`
	Stepnum     int        `yaml:"stepnum"`
	Level       int        `yaml:"level"`
	Pre         string     `yaml:"pre"`
	Action      ActionList `yaml:"action"`
	Content     string     `yaml:"content"`
	Post        string     `yaml:"post"`
}

func (s *Step) base() *Inheritable { return &s.Inheritable }

func (s *Step) mergeFrom(parent entry) {
	p, ok := parent.(*Step)
	if !ok {
		return
	}
	if s.Title == "" {
		s.Title = p.Title
	}
	if s.Stepnum == 0 {
		s.Stepnum = p.Stepnum
	}
	if s.Level == 0 {
		s.Level = p.Level
	}
	if s.Pre == "" {
		s.Pre = p.Pre
	}
	if s.Content == "" {
		s.Content = p.Content
	}
	if s.Post == "" {
		s.Post = p.Post
	}
	if s.Action == nil {
		s.Action = p.Action
	}
}

func (s *Step) substitute() {
	s.Title = s.replace(s.Title)
	s.Pre = s.replace(s.Pre)
	s.Content = s.replace(s.Content)
	s.Post = s.replace(s.Post)
	for i := range s.Action {
		a := &s.Action[i]
		a.Heading = s.replace(a.Heading)
		a.Pre = s.replace(a.Pre)
		a.Code = s.replace(a.Code)
		a.Content = s.replace(a.Content)
		a.Post = s.replace(a.Post)
	}
}

type stepsCategory struct {
	registry[*Step]
}

// NewStepsCategory creates the category for steps-*.yaml files.
func NewStepsCategory(cfg *config.Project) Category {
	return &stepsCategory{registry: newRegistry[*Step]("steps", cfg)}
}

// ToPages renders one page per steps file: a steps directive holding one
// step directive per entry.
func (c *stepsCategory) ToPages(factory PageFactory, reified *ReifiedFile) []*docmodel.Page {
	steps, _ := reified.entries.([]*Step)
	page, embedded := factory()
	page.Category = c.name

	stepsNode := &docmodel.Node{Type: "directive", Name: "steps"}
	for _, step := range steps {
		stepsNode.Children = append(stepsNode.Children, step.render(embedded))
	}
	page.AST = &docmodel.Node{Type: "root", Children: []*docmodel.Node{stepsNode}}
	return []*docmodel.Page{page}
}

// render builds the step directive: a section headed by the step title,
// followed by the step's prose and each action's heading/prose/code.
func (s *Step) render(embedded rst.EmbeddedParser) *docmodel.Node {
	section := &docmodel.Node{Type: "section"}
	heading := &docmodel.Node{Type: "heading", ID: slug(s.Title)}
	heading.Children = embedInline(embedded, s.Title)
	section.Children = append(section.Children, heading)
	section.Children = append(section.Children, embedBlock(embedded, s.Pre)...)

	for i := range s.Action {
		section.Children = append(section.Children, s.Action[i].render(embedded)...)
	}

	section.Children = append(section.Children, embedBlock(embedded, s.Content)...)
	section.Children = append(section.Children, embedBlock(embedded, s.Post)...)

	return &docmodel.Node{
		Type:     "directive",
		Name:     "step",
		Children: []*docmodel.Node{section},
	}
}

func (a *Action) render(embedded rst.EmbeddedParser) []*docmodel.Node {
	var out []*docmodel.Node
	target := &out

	// A heading opens a nested subsection holding the rest of the action.
	if a.Heading != "" {
		sub := &docmodel.Node{Type: "section"}
		heading := &docmodel.Node{Type: "heading", ID: slug(a.Heading)}
		heading.Children = embedInline(embedded, a.Heading)
		sub.Children = append(sub.Children, heading)
		out = append(out, sub)
		target = &sub.Children
	}

	*target = append(*target, embedBlock(embedded, a.Pre)...)
	if a.Code != "" {
		copyable := a.Copyable == nil || *a.Copyable
		*target = append(*target, &docmodel.Node{
			Type:     "code",
			Lang:     a.Language,
			Copyable: copyable,
			Value:    a.Code,
		})
	}
	*target = append(*target, embedBlock(embedded, a.Content)...)
	*target = append(*target, embedBlock(embedded, a.Post)...)
	return out
}

// embedBlock parses an optional block-level prose field.
func embedBlock(embedded rst.EmbeddedParser, text string) []*docmodel.Node {
	if text == "" {
		return nil
	}
	return embedded(text, 0, false)
}

// embedInline parses an optional inline prose field.
func embedInline(embedded rst.EmbeddedParser, text string) []*docmodel.Node {
	if text == "" {
		return nil
	}
	return embedded(text, 0, true)
}

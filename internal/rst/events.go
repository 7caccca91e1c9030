package rst

// Node kind vocabulary shared between markup frontends and the tree builder.
// The names follow the classic docutils element names so that any frontend
// emitting this vocabulary can drive the visitor.
const (
	KindDocument               = "document"
	KindText                   = "text"
	KindParagraph              = "paragraph"
	KindSection                = "section"
	KindTitle                  = "title"
	KindSystemMessage          = "system_message"
	KindField                  = "field"
	KindFieldList              = "field_list"
	KindDefinition             = "definition"
	KindDefinitionList         = "definition_list"
	KindDefinitionListItem     = "definition_list_item"
	KindTerm                   = "term"
	KindBulletList             = "bullet_list"
	KindEnumeratedList         = "enumerated_list"
	KindListItem               = "list_item"
	KindDirective              = "directive"
	KindDirectiveArgument      = "directive_argument"
	KindRole                   = "role"
	KindReference              = "reference"
	KindTarget                 = "target"
	KindSubstitutionDefinition = "substitution_definition"
	KindSubstitutionReference  = "substitution_reference"
	KindBlockQuote             = "block_quote"
	KindCode                   = "code"
	KindLiteral                = "literal"
	KindEmphasis               = "emphasis"
	KindStrong                 = "strong"
)

// Event is one node of the parse-event tree a markup frontend produces for a
// source file. Only the fields meaningful for the event's kind are set.
type Event struct {
	Kind     string
	Line     int
	Children []*Event

	// Directives, roles, substitution references.
	Name    string
	Target  string
	Label   string
	Options map[string]string

	// References and targets.
	RefURI  string
	RefName string
	IDs     []string
	Names   []string

	// System messages; docutils severity scale (1 info .. 4 severe).
	Level int

	// Text leaves and pre-resolved code blocks.
	Value          string
	Lang           string
	Copyable       bool
	EmphasizeLines string
}

// Text returns the concatenated text-leaf content beneath the event.
func (ev *Event) Text() string {
	if ev.Kind == KindText {
		return ev.Value
	}
	var out string
	for _, c := range ev.Children {
		out += c.Text()
	}
	return out
}

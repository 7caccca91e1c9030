package docmodel

// Severity ranks a diagnostic. Diagnostics are always collected, never
// raised: only error severity affects a build's completion status.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "unknown"
}

// Position is a line/column location in a source file.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Diagnostic is a message anchored to a span of a source file.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Start    Position `json:"start"`
	End      Position `json:"end"`
}

// NewDiagnostic creates a diagnostic covering the given line. The end column
// is a sentinel wide enough to cover any realistic line.
func NewDiagnostic(severity Severity, message string, line int) Diagnostic {
	return Diagnostic{
		Severity: severity,
		Message:  message,
		Start:    Position{Line: line},
		End:      Position{Line: line, Column: 1000},
	}
}

// InfoDiagnostic creates an info-severity diagnostic at the given line.
func InfoDiagnostic(message string, line int) Diagnostic {
	return NewDiagnostic(SeverityInfo, message, line)
}

// WarningDiagnostic creates a warning-severity diagnostic at the given line.
func WarningDiagnostic(message string, line int) Diagnostic {
	return NewDiagnostic(SeverityWarning, message, line)
}

// ErrorDiagnostic creates an error-severity diagnostic at the given line.
func ErrorDiagnostic(message string, line int) Diagnostic {
	return NewDiagnostic(SeverityError, message, line)
}

// HasErrors reports whether any diagnostic in the list is error severity.
func HasErrors(diagnostics []Diagnostic) bool {
	for _, d := range diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

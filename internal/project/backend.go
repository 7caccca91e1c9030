package project

import "git.home.luguber.info/inful/docforge/internal/docmodel"

// Backend consumes finished pages and diagnostics. All methods are
// side-effect-only; the pipeline never consumes a return value.
type Backend interface {
	// OnProgress reports build progress.
	OnProgress(done, total int, message string)

	// OnDiagnostics delivers the current diagnostics for a source file.
	// It is invoked on every update, even with an empty list, so a
	// consumer can detect fixed issues.
	OnDiagnostics(id docmodel.FileId, diagnostics []docmodel.Diagnostic)

	// OnUpdate delivers a finished page under its output identity.
	OnUpdate(prefix []string, id docmodel.FileId, page *docmodel.Page)

	// OnDelete reports that an output no longer exists.
	OnDelete(id docmodel.FileId)
}

// Package docmodel holds the data model of the compilation pipeline: file
// identity, diagnostics, the generic document tree, static assets, pages,
// deferred tasks, and the versioned cache backing them.
//
// Trees are mutable while a page is being constructed (deferred tasks patch
// nodes in place) and treated as immutable once the page's task list has
// been drained.
package docmodel

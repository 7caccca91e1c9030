package docmodel

import (
	"path"
	"path/filepath"
	"strings"
)

// FileId is an unambiguous, slash-separated file path relative to the
// project's source root. It is the universal key for pages, assets, and
// cache entries.
type FileId string

// NewFileId normalizes a relative path into a FileId.
func NewFileId(rel string) FileId {
	rel = filepath.ToSlash(rel)
	rel = path.Clean(rel)
	rel = strings.TrimPrefix(rel, "/")
	return FileId(rel)
}

func (id FileId) String() string { return string(id) }

// Ext returns the file extension, including the leading dot.
func (id FileId) Ext() string { return path.Ext(string(id)) }

// Base returns the final path element.
func (id FileId) Base() string { return path.Base(string(id)) }

// Match reports whether the id matches a slash-separated shell pattern.
func (id FileId) Match(pattern string) bool {
	ok, err := path.Match(pattern, string(id))
	return err == nil && ok
}

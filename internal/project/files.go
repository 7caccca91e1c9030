package project

import (
	"io/fs"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/docforge/internal/util/sets"
)

// listFiles recursively collects files under root with one of the given
// extensions, in stable order.
func listFiles(root string, extensions sets.Set[string]) []string {
	var out []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if extensions.Has(filepath.Ext(path)) {
			out = append(out, path)
		}
		return nil
	})
	sort.Strings(out)
	return out
}

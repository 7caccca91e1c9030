package docmodel

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"sort"
	"strings"
)

// TaskKind discriminates the deferred task variants. Tasks are executed by a
// single dispatcher switching on the kind rather than dynamic dispatch.
type TaskKind int

const (
	// TaskChecksum computes and caches a figure asset's checksum.
	TaskChecksum TaskKind = iota
	// TaskInclude transforms a literal-include node into a code node.
	TaskInclude
)

// PendingTask is a unit of expensive node resolution deferred until after
// tree construction. It is bound to one node, runs exactly once with the
// shared cache, and may mutate its node in place.
type PendingTask struct {
	Kind    TaskKind
	Node    *Node
	Asset   *StaticAsset
	Options map[string]string // literal-include options, nil for checksums
}

// errorf creates an error diagnostic anchored at the task's node.
func (t *PendingTask) errorf(format string, args ...any) Diagnostic {
	return ErrorDiagnostic(fmt.Sprintf(format, args...), t.Node.Line())
}

// Run executes the task, returning any diagnostics it produced.
func (t *PendingTask) Run(cache *Cache) []Diagnostic {
	switch t.Kind {
	case TaskChecksum:
		return t.runChecksum(cache)
	case TaskInclude:
		return t.runInclude(cache)
	}
	return nil
}

// runChecksum stores the asset's checksum in the node's options, preferring
// the cached digest so an unchanged asset is never re-read.
func (t *PendingTask) runChecksum(cache *Cache) []Diagnostic {
	if t.Node.Options == nil {
		t.Node.Options = make(map[string]string)
	}
	if entry, ok := cache.Get(t.Asset.FileId, 0); ok {
		t.Node.Options["checksum"] = entry.(string)
		return nil
	}

	checksum, err := t.Asset.Checksum()
	if err != nil {
		return []Diagnostic{t.errorf("Error opening %s: %v", t.Asset.FileId, err)}
	}
	t.Node.Options["checksum"] = checksum
	cache.Set(t.Asset.FileId, 0, checksum)
	return nil
}

// cachedCode is the field set a literal include resolves to. Distinct option
// combinations on the same file cache independently.
type cachedCode struct {
	Lang           string
	Copyable       bool
	Value          string
	EmphasizeLines string
}

func (c cachedCode) apply(n *Node) {
	*n = Node{
		Type:           "code",
		Position:       n.Position,
		Lang:           c.Lang,
		Copyable:       c.Copyable,
		Value:          c.Value,
		EmphasizeLines: c.EmphasizeLines,
	}
}

// optionsKey hashes the sorted option pairs into the cache key.
func optionsKey(options map[string]string) uint64 {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := fnv.New64a()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(options[k]))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// runInclude loads the literal-include target and rewrites the node into a
// code node, honoring start-after, end-before, dedent, and language options.
func (t *PendingTask) runInclude(cache *Cache) []Diagnostic {
	key := optionsKey(t.Options)
	if entry, ok := cache.Get(t.Asset.FileId, key); ok {
		entry.(cachedCode).apply(t.Node)
		return nil
	}

	raw, err := t.Asset.Data()
	if err != nil {
		return []Diagnostic{t.errorf("Error opening %s: %v", t.Asset.FileId, err)}
	}
	lines := strings.Split(string(raw), "\n")

	startAfter := -1
	endBefore := len(lines)
	if marker, ok := t.Options["start-after"]; ok {
		startAfter = findLine(lines, marker, 0)
		if startAfter < 0 {
			return []Diagnostic{t.errorf("%q not found in %s", marker, t.Asset.Path)}
		}
	}
	if marker, ok := t.Options["end-before"]; ok {
		endBefore = findLine(lines, marker, startAfter+1)
		if endBefore < 0 {
			return []Diagnostic{t.errorf("%q not found in %s", marker, t.Asset.Path)}
		}
	}

	// Strictly between the marker lines.
	lines = lines[startAfter+1 : endBefore]

	if _, ok := t.Options["dedent"]; ok {
		lines = dedent(lines)
	}

	lang := t.Options["language"]
	if lang == "" {
		lang = strings.TrimPrefix(filepath.Ext(t.Asset.Path), ".")
	}
	_, copyable := t.Options["copyable"]

	entry := cachedCode{
		Lang:           lang,
		Copyable:       copyable,
		Value:          strings.Join(lines, "\n"),
		EmphasizeLines: t.Options["emphasize-lines"],
	}
	entry.apply(t.Node)
	cache.Set(t.Asset.FileId, key, entry)
	return nil
}

// findLine returns the index of the first line at or after from containing
// the marker substring, or -1.
func findLine(lines []string, marker string, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(lines); i++ {
		if strings.Contains(lines[i], marker) {
			return i
		}
	}
	return -1
}

// dedent strips the minimum leading-whitespace width over all non-blank
// lines (0 if every line is blank) from every line.
func dedent(lines []string) []string {
	width := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		if w := len(line) - len(trimmed); width < 0 || w < width {
			width = w
		}
	}
	if width <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if len(line) >= width {
			out[i] = line[width:]
		} else {
			out[i] = ""
		}
	}
	return out
}

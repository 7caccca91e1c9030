// Package project is the build orchestrator: it owns the page table, the
// page->asset dependency graph, the versioned cache, the legacy YAML
// categories, and the asset watcher, and funnels every mutation through a
// single lock so backend callbacks observe a consistent world.
package project

import (
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/docmodel"
	forgeerrors "git.home.luguber.info/inful/docforge/internal/errors"
	"git.home.luguber.info/inful/docforge/internal/giza"
	"git.home.luguber.info/inful/docforge/internal/gitinfo"
	"git.home.luguber.info/inful/docforge/internal/graph"
	"git.home.luguber.info/inful/docforge/internal/logfields"
	"git.home.luguber.info/inful/docforge/internal/metrics"
	"git.home.luguber.info/inful/docforge/internal/rst"
	"git.home.luguber.info/inful/docforge/internal/util/sets"
	"git.home.luguber.info/inful/docforge/internal/watch"
)

// Options tunes a Project. The zero value gives sensible defaults.
type Options struct {
	// MarkupExtensions are the file extensions parsed as markup documents.
	// Defaults to .rst, .txt and .md.
	MarkupExtensions []string

	// EmbeddedParser parses markup embedded in legacy YAML fields. Defaults
	// to the project's main parser.
	EmbeddedParser rst.Parser

	// Recorder receives build metrics. Defaults to metrics.NoopRecorder.
	Recorder metrics.Recorder

	// Concurrency caps the parallel parse workers. Defaults to NumCPU.
	Concurrency int
}

// Project is the concurrency-safe handle to one documentation project.
// Every operation takes the project lock, including asset events arriving
// from the watcher goroutine.
type Project struct {
	mu    sync.Mutex
	inner *innerProject
}

// Open loads the project configuration rooted at (or above) root and
// prepares an empty project. Call Build to populate it.
func Open(root string, parser rst.Parser, backend Backend, opts Options) (*Project, error) {
	cfg, diagnostics, err := config.Open(root)
	if err != nil {
		return nil, err
	}
	if len(diagnostics) > 0 {
		backend.OnDiagnostics(docmodel.NewFileId(config.ConfigFileName), diagnostics)
		return nil, forgeerrors.New(forgeerrors.CategoryConfig, forgeerrors.SeverityFatal,
			"project configuration is invalid")
	}

	embedded := opts.EmbeddedParser
	if embedded == nil {
		embedded = parser
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = runtime.NumCPU()
	}
	extensions := opts.MarkupExtensions
	if len(extensions) == 0 {
		extensions = []string{".rst", ".txt", ".md"}
	}

	p := &Project{}
	watcher, err := watch.NewFileWatcher(p.handleAssetEvent)
	if err != nil {
		return nil, forgeerrors.Wrap(err, forgeerrors.CategoryInternal, forgeerrors.SeverityFatal,
			"cannot create file watcher")
	}

	p.inner = &innerProject{
		cfg:        cfg,
		sourceRoot: cfg.SourcePath(),
		parser:     parser,
		embedded:   embedded,
		backend:    backend,
		watcher:    watcher,
		categories: map[string]giza.Category{
			"steps":    giza.NewStepsCategory(cfg),
			"extracts": giza.NewExtractsCategory(cfg),
			"release":  giza.NewReleaseCategory(cfg),
		},
		prefix:      gitinfo.BuildPrefix(cfg.Name, cfg.Root),
		pages:       make(map[docmodel.FileId]*docmodel.Page),
		sourceByID:  make(map[docmodel.FileId]string),
		assetGraph:  graph.New[docmodel.FileId](),
		cache:       docmodel.NewCache(),
		recorder:    recorder,
		markupExts:  sets.New(extensions...),
		concurrency: concurrency,
	}
	watcher.Start()
	return p, nil
}

// Config returns the loaded project configuration.
func (p *Project) Config() *config.Project {
	return p.inner.cfg
}

// Build parses every source file in the project.
func (p *Project) Build() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inner.build()
}

// UpdateFile re-parses one source file. If text is non-empty it is used in
// place of the file's on-disk contents.
func (p *Project) UpdateFile(path, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inner.update(path, text)
}

// DeleteFile removes a source file from the project.
func (p *Project) DeleteFile(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inner.deleteFile(path)
}

// Close stops the asset watcher and waits for its dispatch goroutine.
func (p *Project) Close() {
	p.inner.watcher.Stop(true)
}

func (p *Project) handleAssetEvent(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inner.onAssetEvent(path)
}

// innerProject holds the actual state. All methods assume the project lock
// is held.
type innerProject struct {
	cfg        *config.Project
	sourceRoot string
	parser     rst.Parser
	embedded   rst.Parser
	backend    Backend
	watcher    *watch.FileWatcher
	categories map[string]giza.Category
	prefix     []string

	pages      map[docmodel.FileId]*docmodel.Page // keyed by output identity
	sourceByID map[docmodel.FileId]string         // source identity -> filesystem path
	assetGraph *graph.Digraph[docmodel.FileId]    // page source -> asset edges
	cache      *docmodel.Cache

	recorder    metrics.Recorder
	markupExts  sets.Set[string]
	concurrency int
}

type parsedPage struct {
	page        *docmodel.Page
	diagnostics []docmodel.Diagnostic
}

// build performs a full project build: markup documents in parallel, then
// the legacy YAML categories, which need all files registered before any
// inheritance chain can be resolved.
func (p *innerProject) build() error {
	start := time.Now()

	markupPaths := listFiles(p.sourceRoot, p.markupExts)
	results := runOrdered(markupPaths, p.concurrency, func(path string) (parsedPage, error) {
		page, diagnostics, err := rst.ParsePage(p.parser, p.sourceRoot, path, "")
		if err != nil {
			return parsedPage{}, err
		}
		return parsedPage{page: page, diagnostics: diagnostics}, nil
	})
	for i, res := range results {
		if res.Err != nil {
			slog.Warn("Failed to parse", logfields.Path(markupPaths[i]), logfields.Error(res.Err))
			continue
		}
		p.pageUpdated(res.Value.page, res.Value.diagnostics)
		p.backend.OnProgress(i+1, len(markupPaths), "Parsing")
	}

	// Register every legacy file before reifying any of them so that
	// cross-file inheritance always finds its parents.
	allDiagnostics := make(map[string][]docmodel.Diagnostic)
	for _, path := range listFiles(p.sourceRoot, sets.New(".yaml", ".yml")) {
		category, ok := p.categories[giza.InferCategory(path)]
		if !ok {
			continue
		}
		entries, text, diagnostics, err := category.Parse(path, "")
		if err != nil {
			slog.Warn("Failed to read", logfields.Path(path), logfields.Error(err))
			continue
		}
		allDiagnostics[path] = append(allDiagnostics[path], diagnostics...)
		category.Add(path, text, entries)
	}
	for _, category := range p.categories {
		for _, reified := range category.ReifyAll(allDiagnostics) {
			for _, page := range p.reifiedPages(category, reified, allDiagnostics) {
				p.pageUpdated(page, allDiagnostics[reified.Path])
			}
		}
	}

	p.recorder.BuildCompleted(time.Since(start).Seconds())
	return nil
}

// update re-parses a single source file, rebuilding dependent legacy files
// as needed.
func (p *innerProject) update(path, text string) error {
	ext := filepath.Ext(path)
	switch {
	case p.markupExts.Has(ext):
		page, diagnostics, err := rst.ParsePage(p.parser, p.sourceRoot, path, text)
		if err != nil {
			return forgeerrors.Wrap(err, forgeerrors.CategoryBuild, forgeerrors.SeverityError,
				"cannot parse "+path)
		}
		p.pageUpdated(page, diagnostics)
		return nil

	case ext == ".yaml" || ext == ".yml":
		return p.updateLegacy(path, text)
	}
	return forgeerrors.Newf(forgeerrors.CategoryValidation, forgeerrors.SeverityError,
		"unsupported file type: %s", path)
}

func (p *innerProject) updateLegacy(path, text string) error {
	category, ok := p.categories[giza.InferCategory(path)]
	if !ok {
		return forgeerrors.Newf(forgeerrors.CategoryValidation, forgeerrors.SeverityError,
			"no legacy category handles %s", path)
	}

	// Re-register the changed file first so dependents reify against its
	// new contents.
	allDiagnostics := make(map[string][]docmodel.Diagnostic)
	entries, raw, diagnostics, err := category.Parse(path, text)
	if err != nil {
		return forgeerrors.Wrap(err, forgeerrors.CategoryFileSystem, forgeerrors.SeverityError,
			"cannot read "+path)
	}
	allDiagnostics[path] = append(allDiagnostics[path], diagnostics...)
	category.Add(path, raw, entries)

	// A changed parent invalidates everything inheriting from it, in any
	// category's dependency graph.
	fileName := filepath.Base(path)
	needs := sets.New(fileName)
	for _, cat := range p.categories {
		for _, dep := range cat.Dependents(fileName) {
			needs.Add(dep)
		}
	}
	names := needs.Values()
	slices.Sort(names)

	for _, name := range names {
		if name != fileName {
			// Reification merges parent fields into the stored entries, so
			// a dependent must be reloaded before it is resolved again.
			srcPath, registered := category.PathOf(name)
			if !registered {
				// A dependent we know only by name. Skip it rather than
				// fail the whole update.
				slog.Warn("Dependent file not registered", logfields.Path(name))
				continue
			}
			entries, raw, diagnostics, err := category.Parse(srcPath, "")
			if err != nil {
				slog.Warn("Failed to read", logfields.Path(srcPath), logfields.Error(err))
				continue
			}
			allDiagnostics[srcPath] = append(allDiagnostics[srcPath], diagnostics...)
			category.Add(srcPath, raw, entries)
		}
		reified, err := category.ReifyFile(name, allDiagnostics)
		if err != nil {
			slog.Warn("Cannot rebuild dependent file", logfields.Path(name), logfields.Error(err))
			continue
		}
		for _, page := range p.reifiedPages(category, reified, allDiagnostics) {
			p.pageUpdated(page, allDiagnostics[reified.Path])
		}
	}
	return nil
}

// deleteFile removes a source file's registrations, pages, and watches, and
// notifies the backend.
func (p *innerProject) deleteFile(path string) {
	fileName := filepath.Base(path)
	for _, category := range p.categories {
		category.Remove(fileName)
	}

	id := p.fileid(path)
	if page, ok := p.pages[id]; ok {
		for _, asset := range page.StaticAssets {
			p.watcher.EndWatch(asset.Path)
		}
		p.assetGraph.RemoveNode(p.fileid(page.SourcePath))
		delete(p.pages, id)
	}
	p.backend.OnDelete(id)
}

// pageUpdated finishes a page and installs it: pending tasks run against the
// cache, asset watches are diffed against the page's previous incarnation,
// the dependency graph is rewritten, and the backend is notified. The
// diagnostics callback fires on every update, even with nothing to report.
func (p *innerProject) pageUpdated(page *docmodel.Page, diagnostics []docmodel.Diagnostic) {
	combined := make([]docmodel.Diagnostic, 0, len(diagnostics))
	combined = append(combined, diagnostics...)
	combined = append(combined, page.Finish(p.cache)...)

	outID := p.fileid(page.OutputPath())
	srcID := p.fileid(page.SourcePath)

	var oldAssets docmodel.AssetSet
	if old, ok := p.pages[outID]; ok {
		oldAssets = old.StaticAssets
	}
	for _, asset := range page.StaticAssets.Difference(oldAssets) {
		if err := p.watcher.WatchFile(asset.Path); err != nil {
			// An unwatchable asset (typically nonexistent) is dropped so
			// the diff bookkeeping stays balanced.
			slog.Debug("Failed to watch asset", logfields.Asset(string(asset.FileId)), logfields.Error(err))
			delete(page.StaticAssets, asset.FileId)
		}
	}
	for _, asset := range oldAssets.Difference(page.StaticAssets) {
		p.watcher.EndWatch(asset.Path)
	}

	p.assetGraph.RemoveNode(srcID)
	for assetID := range page.StaticAssets {
		p.assetGraph.AddEdge(srcID, assetID)
	}
	p.sourceByID[srcID] = page.SourcePath
	p.pages[outID] = page

	p.backend.OnUpdate(p.prefix, outID, page)
	p.backend.OnDiagnostics(srcID, combined)

	p.recorder.PageBuilt()
	counts := make(map[string]int)
	for _, d := range combined {
		counts[d.Severity.String()]++
	}
	for severity, count := range counts {
		p.recorder.DiagnosticsReported(severity, count)
	}
}

// onAssetEvent invalidates an asset's cache entries and rebuilds every page
// referencing it.
func (p *innerProject) onAssetEvent(assetPath string) {
	id := p.fileid(assetPath)
	p.cache.Invalidate(id)
	p.recorder.AssetEvent()

	deps := p.assetGraph.Predecessors(id)
	slices.Sort(deps)
	for _, srcID := range deps {
		srcPath, ok := p.sourceByID[srcID]
		if !ok {
			continue
		}
		if err := p.update(srcPath, ""); err != nil {
			slog.Warn("Failed to rebuild after asset change", logfields.Path(srcPath), logfields.Error(err))
		}
	}
}

// reifiedPages synthesizes the output pages of a reified legacy file,
// routing embedded-markup diagnostics back into the per-file bucket.
func (p *innerProject) reifiedPages(category giza.Category, reified *giza.ReifiedFile, allDiagnostics map[string][]docmodel.Diagnostic) []*docmodel.Page {
	var embeddedDiags []docmodel.Diagnostic
	factory := func() (*docmodel.Page, rst.EmbeddedParser) {
		page := docmodel.NewPage(reified.Path, reified.Text, nil)
		return page, rst.MakeEmbeddedParser(p.embedded, p.sourceRoot, page, &embeddedDiags)
	}
	pages := category.ToPages(factory, reified)
	if len(embeddedDiags) > 0 {
		allDiagnostics[reified.Path] = append(allDiagnostics[reified.Path], embeddedDiags...)
	}
	return pages
}

// fileid maps a filesystem path to its project-relative identity.
func (p *innerProject) fileid(path string) docmodel.FileId {
	rel, err := filepath.Rel(p.sourceRoot, path)
	if err != nil {
		rel = path
	}
	return docmodel.NewFileId(rel)
}

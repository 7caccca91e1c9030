package main

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"git.home.luguber.info/inful/docforge/internal/docmodel"
	"git.home.luguber.info/inful/docforge/internal/logfields"
	"git.home.luguber.info/inful/docforge/internal/markdown"
	"git.home.luguber.info/inful/docforge/internal/metrics"
	"git.home.luguber.info/inful/docforge/internal/project"
	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var CLI struct {
	Verbose bool `short:"v" help:"Enable verbose logging"`

	Build struct {
		Root   string `arg:"" help:"Project root directory" default:"."`
		Output string `short:"o" help:"Write built pages as JSON under this directory"`
	} `cmd:"" help:"Build the documentation project once"`

	Watch struct {
		Root    string `arg:"" help:"Project root directory" default:"."`
		Output  string `short:"o" help:"Write built pages as JSON under this directory"`
		Metrics string `help:"Serve Prometheus metrics on this address (e.g. :9100)"`
	} `cmd:"" help:"Build, then rebuild on source changes"`
}

func main() {
	_ = godotenv.Load()
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	switch ctx.Command() {
	case "build", "build <root>":
		err = runBuild(CLI.Build.Root, CLI.Build.Output)
	case "watch", "watch <root>":
		err = runWatch(CLI.Watch.Root, CLI.Watch.Output, CLI.Watch.Metrics)
	}
	if err != nil {
		slog.Error("Build failed", logfields.Error(err))
		os.Exit(1)
	}
}

func runBuild(root, output string) error {
	backend := &consoleBackend{output: output}
	proj, err := project.Open(root, markdown.New(), backend, project.Options{
		MarkupExtensions: []string{".md"},
	})
	if err != nil {
		return err
	}
	defer proj.Close()

	if err := proj.Build(); err != nil {
		return err
	}
	if backend.errors.Load() > 0 {
		slog.Error("Build finished with errors", logfields.Count(int(backend.errors.Load())))
		os.Exit(1)
	}
	slog.Info("Build finished", logfields.Count(int(backend.pages.Load())))
	return nil
}

func runWatch(root, output, metricsAddr string) error {
	opts := project.Options{MarkupExtensions: []string{".md"}}
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts.Recorder = metrics.NewPrometheusRecorder(reg)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
	}

	backend := &consoleBackend{output: output}
	proj, err := project.Open(root, markdown.New(), backend, opts)
	if err != nil {
		return err
	}
	defer proj.Close()

	if err := proj.Build(); err != nil {
		return err
	}
	slog.Info("Initial build finished, watching for changes",
		logfields.Path(proj.Config().SourcePath()))

	return watchSources(proj)
}

// watchSources rebuilds individual files as they change until interrupted.
// Static assets are watched by the project itself; this loop covers the
// authored sources.
func watchSources(proj *project.Project) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			slog.Debug("Failed to close source watcher", logfields.Error(err))
		}
	}()

	sourceRoot := proj.Config().SourcePath()
	err = filepath.WalkDir(sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-stop:
			slog.Info("Shutting down")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleSourceEvent(proj, watcher, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Source watcher error", logfields.Error(err))
		}
	}
}

func handleSourceEvent(proj *project.Project, watcher *fsnotify.Watcher, ev fsnotify.Event) {
	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
		if ev.Op.Has(fsnotify.Create) {
			if err := watcher.Add(ev.Name); err != nil {
				slog.Debug("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
			}
		}
		return
	}

	switch ext := filepath.Ext(ev.Name); ext {
	case ".md", ".yaml", ".yml":
	default:
		return
	}

	switch {
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		slog.Info("Source removed", logfields.Path(ev.Name))
		proj.DeleteFile(ev.Name)
	case ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create):
		slog.Info("Source changed", logfields.Path(ev.Name))
		if err := proj.UpdateFile(ev.Name, ""); err != nil {
			slog.Warn("Failed to rebuild", logfields.Path(ev.Name), logfields.Error(err))
		}
	}
}

// consoleBackend logs diagnostics and optionally serializes finished pages
// as JSON documents under an output directory.
type consoleBackend struct {
	output string
	pages  atomic.Int64
	errors atomic.Int64
}

func (b *consoleBackend) OnProgress(done, total int, message string) {
	slog.Debug(message, slog.Int("done", done), slog.Int("total", total))
}

func (b *consoleBackend) OnDiagnostics(id docmodel.FileId, diagnostics []docmodel.Diagnostic) {
	for _, d := range diagnostics {
		attrs := []any{
			logfields.FileID(string(id)),
			slog.Int("line", d.Start.Line),
		}
		switch d.Severity {
		case docmodel.SeverityError:
			b.errors.Add(1)
			slog.Error(d.Message, attrs...)
		case docmodel.SeverityWarning:
			slog.Warn(d.Message, attrs...)
		default:
			slog.Info(d.Message, attrs...)
		}
	}
}

func (b *consoleBackend) OnUpdate(prefix []string, id docmodel.FileId, page *docmodel.Page) {
	b.pages.Add(1)
	slog.Debug("Page built", logfields.OutputID(string(id)))
	if b.output == "" {
		return
	}

	out := filepath.Join(b.output, filepath.FromSlash(string(id))+".json")
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		slog.Warn("Failed to create output directory", logfields.Path(out), logfields.Error(err))
		return
	}
	data, err := json.MarshalIndent(page.AST, "", "  ")
	if err != nil {
		slog.Warn("Failed to serialize page", logfields.OutputID(string(id)), logfields.Error(err))
		return
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		slog.Warn("Failed to write page", logfields.Path(out), logfields.Error(err))
	}
}

func (b *consoleBackend) OnDelete(id docmodel.FileId) {
	slog.Info("Page removed", logfields.OutputID(string(id)))
	if b.output == "" {
		return
	}
	out := filepath.Join(b.output, filepath.FromSlash(string(id))+".json")
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		slog.Debug("Failed to remove page output", logfields.Path(out), logfields.Error(err))
	}
}

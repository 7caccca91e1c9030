// Package watch presents a per-file watch abstraction over fsnotify's
// per-directory primitive. Each watched directory carries a reference count
// per filename; only events for tracked (directory, filename) pairs are
// forwarded.
package watch

import (
	"log/slog"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/docforge/internal/logfields"
	"github.com/fsnotify/fsnotify"
)

// assetWatch tracks the files being watched within one directory.
type assetWatch struct {
	filenames map[string]int // refcount per filename
}

// FileWatcher monitors individual files for changes and invokes a callback
// for each event that matches a tracked file.
type FileWatcher struct {
	onEvent func(path string)

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	directories map[string]*assetWatch
	done        chan struct{}
}

// NewFileWatcher creates a watcher delivering events to onEvent. Call Start
// to begin dispatching.
func NewFileWatcher(onEvent func(path string)) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FileWatcher{
		onEvent:     onEvent,
		watcher:     w,
		directories: make(map[string]*assetWatch),
		done:        make(chan struct{}),
	}, nil
}

// WatchFile starts reporting changes to the given file. Watching the same
// file again increments its reference count.
func (f *FileWatcher) WatchFile(path string) error {
	dir, name := filepath.Split(path)
	dir = filepath.Clean(dir)

	f.mu.Lock()
	defer f.mu.Unlock()

	if watch, ok := f.directories[dir]; ok {
		watch.filenames[name]++
		return nil
	}
	slog.Debug("Starting watch", logfields.Path(path))
	if err := f.watcher.Add(dir); err != nil {
		return err
	}
	f.directories[dir] = &assetWatch{filenames: map[string]int{name: 1}}
	return nil
}

// EndWatch decrements a file's watch count. When a directory has no tracked
// filenames left its OS-level watch is removed.
func (f *FileWatcher) EndWatch(path string) {
	dir, name := filepath.Split(path)
	dir = filepath.Clean(dir)

	f.mu.Lock()
	defer f.mu.Unlock()

	watch, ok := f.directories[dir]
	if !ok {
		return
	}
	watch.filenames[name]--
	if watch.filenames[name] <= 0 {
		delete(watch.filenames, name)
	}
	if len(watch.filenames) == 0 {
		if err := f.watcher.Remove(dir); err != nil {
			slog.Debug("Failed to remove directory watch", logfields.Path(dir), logfields.Error(err))
		}
		slog.Info("Stopping watch", logfields.Path(path))
		delete(f.directories, dir)
	}
}

// Start launches the event dispatch goroutine.
func (f *FileWatcher) Start() {
	go f.run()
}

// Stop closes the watcher. With join set it blocks until the dispatch
// goroutine has exited.
func (f *FileWatcher) Stop(join bool) {
	if err := f.watcher.Close(); err != nil {
		slog.Debug("Failed to close watcher", logfields.Error(err))
	}
	if join {
		<-f.done
	}
}

// Len returns the number of tracked (directory, filename) pairs.
func (f *FileWatcher) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, watch := range f.directories {
		n += len(watch.filenames)
	}
	return n
}

// WatchedDirectories returns the number of directories with an OS-level
// watch installed.
func (f *FileWatcher) WatchedDirectories() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.directories)
}

// IsWatched reports whether the exact file is currently tracked.
func (f *FileWatcher) IsWatched(path string) bool {
	dir, name := filepath.Split(path)
	dir = filepath.Clean(dir)

	f.mu.Lock()
	defer f.mu.Unlock()
	watch, ok := f.directories[dir]
	return ok && watch.filenames[name] > 0
}

// run forwards events for tracked files and drops everything else.
func (f *FileWatcher) run() {
	defer close(f.done)
	for {
		select {
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if f.shouldDispatch(ev.Name) {
				f.onEvent(ev.Name)
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (f *FileWatcher) shouldDispatch(path string) bool {
	dir, name := filepath.Split(path)
	dir = filepath.Clean(dir)

	f.mu.Lock()
	defer f.mu.Unlock()
	watch, ok := f.directories[dir]
	return ok && watch.filenames[name] > 0
}

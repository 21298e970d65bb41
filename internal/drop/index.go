package drop

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Change is one file appearing in or leaving the resource directory.
type Change struct {
	Path    string // slash separated, relative to the index root
	Removed bool
}

// Index is the set of asset files under the resource directory.
//
// The file set belongs to the frame thread: it is only modified by Scan and
// Drain. The watcher goroutine only appends to a queue.
type Index struct {
	root string
	log  *zap.Logger

	files map[string]struct{}

	mu      sync.Mutex
	queue   []Change
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewIndex creates an empty index rooted at dir.
func NewIndex(dir string, log *zap.Logger) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{root: dir, log: log, files: make(map[string]struct{})}
}

func (ix *Index) Root() string { return ix.root }

// Scan rebuilds the file set from disk. A missing root is an empty index.
func (ix *Index) Scan() error {
	files := make(map[string]struct{})
	err := filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if rel, ok := ix.rel(path); ok {
			files[rel] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", ix.root, err)
	}
	ix.files = files
	return nil
}

// Has reports whether a relative path is indexed.
func (ix *Index) Has(rel string) bool {
	_, ok := ix.files[filepath.ToSlash(rel)]
	return ok
}

// Files returns every indexed path, sorted.
func (ix *Index) Files() []string {
	out := make([]string, 0, len(ix.files))
	for f := range ix.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (ix *Index) Len() int { return len(ix.files) }

// Add records a file the frame thread itself just placed under the root.
func (ix *Index) Add(rel string) {
	ix.files[filepath.ToSlash(rel)] = struct{}{}
}

// Watch starts an fsnotify watcher on the root and its subdirectories. It
// returns once the watcher is running; events are queued until Drain.
func (ix *Index) Watch(ctx context.Context) error {
	if err := os.MkdirAll(ix.root, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", ix.root, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	err = filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", ix.root, err)
	}

	ix.mu.Lock()
	ix.watcher = w
	ix.done = make(chan struct{})
	ix.mu.Unlock()

	go ix.loop(ctx, w, ix.done)
	ix.log.Info("watching assets", zap.String("dir", ix.root))
	return nil
}

func (ix *Index) loop(ctx context.Context, w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			ix.handle(w, event)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			ix.log.Warn("asset watcher error", zap.Error(err))
		case <-ctx.Done():
			return
		}
	}
}

func (ix *Index) handle(w *fsnotify.Watcher, event fsnotify.Event) {
	rel, ok := ix.rel(event.Name)
	if !ok {
		return
	}
	switch {
	case event.Op&fsnotify.Create != 0:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.Add(event.Name); err != nil {
				ix.log.Warn("watching new directory failed", zap.String("dir", event.Name), zap.Error(err))
			}
			return
		}
		ix.enqueue(Change{Path: rel})
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		ix.enqueue(Change{Path: rel, Removed: true})
	}
}

func (ix *Index) enqueue(c Change) {
	ix.mu.Lock()
	ix.queue = append(ix.queue, c)
	ix.mu.Unlock()
}

// Pending returns the number of queued changes.
func (ix *Index) Pending() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.queue)
}

// Drain applies queued changes to the file set and returns them. It must
// be called on the frame thread.
func (ix *Index) Drain() []Change {
	ix.mu.Lock()
	queued := ix.queue
	ix.queue = nil
	ix.mu.Unlock()

	for _, c := range queued {
		if c.Removed {
			delete(ix.files, c.Path)
		} else {
			ix.files[c.Path] = struct{}{}
		}
	}
	return queued
}

// Close stops the watcher and waits for its goroutine.
func (ix *Index) Close() error {
	ix.mu.Lock()
	w, done := ix.watcher, ix.done
	ix.watcher = nil
	ix.mu.Unlock()
	if w == nil {
		return nil
	}
	err := w.Close()
	<-done
	return err
}

func (ix *Index) rel(path string) (string, bool) {
	if strings.HasPrefix(filepath.Base(path), stagePrefix) {
		return "", false
	}
	rel, err := filepath.Rel(ix.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

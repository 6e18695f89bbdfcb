// Package watch rebuilds the graph whenever files under the target change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher triggers a rebuild callback after changes settle.
type Watcher struct {
	target   string
	debounce time.Duration
	match    func(path string) bool
	rebuild  func(context.Context) error
}

// New creates a watcher. Only events on paths accepted by match trigger a
// rebuild, so writing the output file inside the tree does not loop.
// rebuild runs once immediately in Run and again after every burst of
// matching events.
func New(target string, debounce time.Duration, match func(path string) bool, rebuild func(context.Context) error) *Watcher {
	return &Watcher{target: target, debounce: debounce, match: match, rebuild: rebuild}
}

// Run watches until ctx is done. Every rebuild is a full one.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.target); err != nil {
		return err
	}

	if err := w.rebuild(ctx); err != nil {
		log.Printf("[watch] Warning: initial build failed: %v", err)
	}

	// nil until an event arrives; each event pushes the deadline out
	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, ev.Name); err != nil {
						log.Printf("[watch] Warning: %v", err)
					}
				}
			}
			if w.match(ev.Name) && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)) {
				settle = time.After(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("[watch] Warning: %v", err)
		case <-settle:
			settle = nil
			if err := w.rebuild(ctx); err != nil {
				log.Printf("[watch] Warning: rebuild failed: %v", err)
			}
		}
	}
}

// addTree watches dir and every directory below it. A file target is
// watched through its directory.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watcher stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fw.Add(filepath.Dir(dir))
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watcher add %s: %w", path, err)
		}
		return nil
	})
}

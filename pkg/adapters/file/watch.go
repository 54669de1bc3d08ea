package file

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval collapses bursts of writes (editors save in several
// steps) into one reload signal.
var DebounceInterval = 200 * time.Millisecond

// Watch implements ports.Watchable. Every directory of the tree is watched;
// directories created later are added as they appear. For a single file
// its directory is watched and unrelated files are ignored.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	info, err := os.Stat(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", l.Path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}

	root := l.Path
	relevant := func(path string) bool { return isYAML(path) }
	if info.IsDir() {
		if err := addTree(watcher, root); err != nil {
			watcher.Close()
			return nil, err
		}
	} else {
		root = filepath.Dir(l.Path)
		if err := watcher.Add(root); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", root, err)
		}
		target := filepath.Clean(l.Path)
		relevant = func(path string) bool {
			path = filepath.Clean(path)
			return path == target ||
				path == filepath.Join(root, LayoutsFile) ||
				path == filepath.Join(root, SectionsFile)
		}
	}

	logger := l.logger().With("component", "file-watcher")
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer watcher.Close()

		timer := time.NewTimer(DebounceInterval)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if info.IsDir() && event.Has(fsnotify.Create) {
					if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() && !hidden(event.Name) {
						if err := addTree(watcher, event.Name); err != nil {
							logger.Warn("failed to watch new directory", "path", event.Name, "err", err)
						}
						timer.Reset(DebounceInterval)
						continue
					}
				}
				if relevant(event.Name) && !hidden(event.Name) {
					timer.Reset(DebounceInterval)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("file watcher error", "path", root, "err", err)
			case <-timer.C:
				// Coalesce: a pending signal already means "reload".
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func isYAML(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// hidden reports whether the base name is a dotfile, such as an editor swap
// file or the deck store directory.
func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

package tool

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Load scans dir once, parsing every manifest file it contains and
// registering the result (spec.md §4.5 "load").
func (e *Engine) Load(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !isManifestFile(entry.Name()) {
			continue
		}
		if err := e.loadFile(filepath.Join(dir, entry.Name())); err != nil {
			if e.Logger != nil {
				e.Logger.Warn("tool manifest failed to parse", "file", entry.Name(), "err", err)
			}
		}
	}
	return nil
}

func (e *Engine) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	t, err := ParseManifest(f)
	if err != nil {
		return err
	}
	e.Register(t)
	return nil
}

func isManifestFile(name string) bool {
	return strings.HasSuffix(name, ".tool")
}

// Watch enables hot reload per spec.md §4.5: fsnotify watches dir, and on
// manifest mutation re-indexes the affected name and publishes the
// corresponding event. Grounded on hector's own fsnotify use in
// pkg/config/provider/file.go and v2/rag/watcher.go.
func (e *Engine) Watch(dir string, logger *slog.Logger) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isManifestFile(ev.Name) {
					continue
				}
				switch {
				case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
					if err := e.loadFile(ev.Name); err != nil && logger != nil {
						logger.Warn("hot reload failed", "file", ev.Name, "err", err)
					}
				case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
					name := strings.TrimSuffix(filepath.Base(ev.Name), ".tool")
					e.Remove(name)
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if logger != nil {
					logger.Warn("tool directory watch error", "err", werr)
				}
			}
		}
	}()

	return watcher.Close, nil
}

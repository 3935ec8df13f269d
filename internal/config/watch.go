package config

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is invoked with the freshly-loaded Config whenever the watched
// file changes.
type ReloadFunc func(*Config)

// Watch hot-reloads path on write/create events, the same fsnotify
// single-file watch pattern as internal/tool.Engine.Watch (itself grounded
// on hector's pkg/config/provider/file.go).
func Watch(path string, logger *slog.Logger, onReload ReloadFunc) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
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
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				c, err := Load(path)
				if err != nil {
					if logger != nil {
						logger.Warn("config reload failed", "file", path, "err", err)
					}
					continue
				}
				onReload(c)
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if logger != nil {
					logger.Warn("config watch error", "err", werr)
				}
			}
		}
	}()

	return watcher.Close, nil
}

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader loads the message catalog from an optional YAML file and can
// hot-reload it. Keys missing from the file keep their built-in text.
type Loader struct {
	path string

	mu       sync.RWMutex
	messages *Messages
}

// NewLoader creates a loader for path. An empty path serves the defaults.
func NewLoader(path string) *Loader {
	return &Loader{
		path:     path,
		messages: Defaults(),
	}
}

// Load reads the catalog file. A catalog that fails validation is rejected
// and the previous one stays in effect.
func (l *Loader) Load() (*Messages, error) {
	if l.path == "" {
		return l.Current(), nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", l.path, err)
	}

	m := Defaults()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse catalog %q: %w", l.path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %q: %w", l.path, err)
	}

	l.mu.Lock()
	l.messages = m
	l.mu.Unlock()

	return m, nil
}

// Current returns the catalog in effect. The returned value must not be
// modified.
func (l *Loader) Current() *Messages {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.messages
}

// WatchAndReload reloads the catalog whenever its file is written or
// replaced. It blocks until ctx is done.
func (l *Loader) WatchAndReload(ctx context.Context) error {
	if l.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", dir, err)
	}
	target := filepath.Clean(l.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if _, err := l.Load(); err != nil {
					slog.Warn("catalog reload failed, keeping previous catalog",
						slog.String("path", l.path), slog.String("error", err.Error()))
					continue
				}
				slog.Info("catalog reloaded", slog.String("path", l.path))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

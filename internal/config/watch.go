package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the file whenever it changes and hands every valid result
// to onChange. Invalid edits are logged and skipped. It blocks until ctx is
// done.
func (m *Manager) Watch(ctx context.Context, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory.
	dir := filepath.Dir(m.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("unable to watch %s: %w", dir, err)
	}
	target := filepath.Clean(m.path)

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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			c, err := m.reload()
			if err != nil {
				log.Printf("Ignoring config change: %v", err)
				continue
			}
			onChange(c)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Config watcher error: %v", err)
		}
	}
}

func (m *Manager) reload() (*Config, error) {
	f, err := os.Open(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	c, err := NewFromReader(f)
	if err != nil {
		return nil, err
	}
	m.config = c
	return c, nil
}

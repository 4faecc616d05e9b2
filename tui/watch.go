// ABOUTME: Station file watching for live catalog reloads
// ABOUTME: Watches the file's directory so editor rename-on-save is caught

package tui

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// reloadSettle gives editors time to finish an atomic save before we read
const reloadSettle = 100 * time.Millisecond

// fileChangeMsg signals that the station file was modified
type fileChangeMsg struct{}

// newCatalogWatcher watches the directory holding path
func newCatalogWatcher(path string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return watcher, nil
}

// isCatalogEvent reports whether event changed the station file's content
func isCatalogEvent(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != filepath.Clean(path) {
		return false
	}

	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// waitForFileChange returns a command that waits for the next change to path
func waitForFileChange(watcher *fsnotify.Watcher, path string) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}

				if isCatalogEvent(event, path) {
					time.Sleep(reloadSettle)
					return fileChangeMsg{}
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}

				// Log error but continue watching
				log.Warn().Err(err).Msg("File watcher error")
			}
		}
	}
}

package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"setpace/internal/log"
	"setpace/internal/preferences"

	"github.com/fsnotify/fsnotify"
)

var reloadDebounce = 500 * time.Millisecond

// WatchSettings reloads configPath whenever it changes and hands the result to
// onChange. It returns once the watcher is running; the watcher stops with ctx.
// The parent directory is watched so editors that replace the file are seen.
func WatchSettings(ctx context.Context, configPath string, onChange func(preferences.Settings)) error {
	logger := log.WithComponent("settings")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch settings dir: %w", err)
	}

	logger.Info().
		Str("event", "settings.watcher_started").
		Str("path", configPath).
		Msg("watching settings file for changes")

	target := filepath.Clean(configPath)

	go func() {
		defer watcher.Close()

		var (
			mu       sync.Mutex
			debounce *time.Timer
		)
		defer func() {
			mu.Lock()
			if debounce != nil {
				debounce.Stop()
			}
			mu.Unlock()
		}()

		reload := func() {
			if ctx.Err() != nil {
				return
			}
			settings, err := LoadSettingsFile(configPath)
			if err != nil {
				logger.Error().
					Err(err).
					Str("event", "settings.reload_failed").
					Msg("settings reload failed")
				return
			}
			logger.Info().
				Str("event", "settings.reloaded").
				Msg("settings reloaded")
			onChange(settings)
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				logger.Debug().
					Str("event", "settings.file_changed").
					Str("op", event.Op.String()).
					Msg("settings file changed")

				mu.Lock()
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, reload)
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error().
					Err(err).
					Str("event", "settings.watcher_error").
					Msg("settings watcher error")
			}
		}
	}()

	return nil
}

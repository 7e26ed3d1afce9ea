package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/zoea-discovery/internal/constants"
)

// Watch reloads the config file whenever it changes and passes the result to
// onChange. Invalid files are logged and skipped. Watch blocks until ctx is done.
//
// The parent directory is watched so that editors which replace the file on
// save are still picked up.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debug().Str("event", event.Op.String()).Str("file", event.Name).Msg("Config file changed")
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(constants.ConfigReloadDebounce)
			fire = debounce.C
		case <-fire:
			fire = nil
			cfg, err := Load(abs)
			if err != nil {
				log.Warn().Err(err).Str("file", abs).Msg("Ignoring invalid config reload")
				continue
			}
			log.Info().Str("file", abs).Msg("Config reloaded")
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Config watcher error")
		}
	}
}

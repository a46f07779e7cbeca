package i18n

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the catalog directory whenever a YAML file inside it changes.
// Catalog edits go live without a restart; a broken edit keeps the previous
// catalogs and logs the parse error.
func Watch(ctx context.Context, manager *Manager, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(manager.dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
					continue
				}

				if err := manager.Reload(); err != nil {
					log.Error("i18n reload failed", slog.String("file", event.Name), slog.Any("error", err))
					continue
				}
				log.Info("i18n catalogs reloaded", slog.String("file", event.Name))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("i18n watcher error", slog.Any("error", err))
			}
		}
	}()

	return nil
}

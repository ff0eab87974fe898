package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/syssam/domgen/internal/logger"
)

// watchDefinition runs fn once and again whenever the file at path
// changes, until ctx is done. Bursts of events within debounce run fn once.
// Failures of fn are logged and do not stop watching.
func watchDefinition(ctx context.Context, path string, debounce time.Duration, log *logger.Logger, fn func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	path = filepath.Clean(path)
	// Editors replace files on save, so watch the directory.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	runOnce := func() {
		if err := fn(); err != nil {
			log.Failure(err, "generation failed")
		}
	}
	runOnce()
	log.Info().Str("path", path).Msg("watching for changes")

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			log.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("change detected")
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watcher error")
		case <-timer.C:
			runOnce()
		}
	}
}

package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch triggers onChange once the input directory has been quiet for debounce after a
// supported file was created or written in it. It turns off recovery of completed files,
// since moving them back would look like new input. It blocks until ctx is done.
func (l *DocumentLoader) Watch(ctx context.Context, debounce time.Duration, onChange func()) error {
	watcher, err := l.newWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	return l.watchEvents(ctx, watcher, debounce, onChange)
}

func (l *DocumentLoader) newWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(l.files.InputDir()); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", l.files.InputDir(), err)
	}
	l.files.DisableRecovery()
	l.logger.Info("Watching input directory", "dir", l.files.InputDir())
	return watcher, nil
}

func (l *DocumentLoader) watchEvents(ctx context.Context, watcher *fsnotify.Watcher, debounce time.Duration, onChange func()) error {
	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !l.isNewInput(event) {
				continue
			}
			l.logger.Debug("Input directory changed", "file", event.Name, "op", event.Op.String())
			pending = true
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Error("Watcher error", "error", err)

		case <-timer.C:
			if pending {
				pending = false
				onChange()
			}
		}
	}
}

// isNewInput filters out events raised by ingestion itself: anything seen while a run is
// in progress, and files already moved to completed by the time the event is read.
func (l *DocumentLoader) isNewInput(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return false
	}
	if l.Running() || !l.loaders.Supports(event.Name) {
		return false
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.Mode().IsRegular()
}

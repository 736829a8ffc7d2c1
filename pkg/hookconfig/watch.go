package hookconfig

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 200 * time.Millisecond

// Watch re-merges the override file at path into s whenever it is created or
// written. The parent directory is watched so editors that replace the file
// by rename are picked up. Watch blocks until ctx is cancelled.
//
// Fields removed from the file are not reverted; overrides only ever layer on
// top of what the store already holds.
func Watch(ctx context.Context, s *Store, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	dir := filepath.Dir(target)
	if _, err := os.Stat(dir); err != nil {
		s.logger.Debug("hook config dir missing, not watching", zap.String("dir", dir))
		<-ctx.Done()
		return ctx.Err()
	}
	if err := watcher.Add(dir); err != nil {
		return err
	}

	var (
		debounceTimer *time.Timer
		mu            sync.Mutex
		pending       bool
	)

	doReload := func() {
		mu.Lock()
		pending = false
		mu.Unlock()
		if _, err := s.LoadFile(target); err == nil {
			s.logger.Info("hook config reloaded", zap.String("path", target))
		}
	}
	defer func() {
		mu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			mu.Lock()
			if !pending {
				pending = true
				debounceTimer = time.AfterFunc(watchDebounce, doReload)
			} else {
				debounceTimer.Reset(watchDebounce)
			}
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("hook config watcher error", zap.Error(err))
		}
	}
}

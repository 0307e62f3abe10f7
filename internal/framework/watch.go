package framework

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDebounce coalesces the burst of events editors produce
// when saving.
const DefaultReloadDebounce = 100 * time.Millisecond

// Watch reloads the script whenever the file at path changes, until ctx
// is done or the runtime is closed. The containing directory is watched
// so that editors replacing the file by rename are seen.
func (r *Runtime) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer w.Close()
		r.watchLoop(ctx, w, abs)
	}()
	return nil
}

func (r *Runtime) watchLoop(ctx context.Context, w *fsnotify.Watcher, path string) {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.exec.done:
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(DefaultReloadDebounce)
			} else {
				timer.Reset(DefaultReloadDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := r.Reload(ctx); err != nil {
				r.logger.Warn("reload of %s failed, keeping previous script: %v", path, err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			r.logger.Warn("script watcher: %v", err)
		}
	}
}

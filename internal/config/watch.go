package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tgifai/reminder/internal/pkg/logs"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads the config whenever its file changes and hands the new
// snapshot to onChange. Editors often write in several steps, so events are
// debounced. Blocks until ctx is done.
func (ins *InstanceManager) Watch(ctx context.Context, onChange func(*Config)) error {
	path := ins.Path()
	if path == "" {
		return nil
	}
	dir, file := filepath.Dir(path), filepath.Base(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	reload := func() {
		cfg, changed, err := ins.Reload()
		if err != nil {
			logs.CtxWarn(ctx, "[config] reload %s failed, keeping previous: %v", path, err)
			return
		}
		if !changed {
			return
		}
		logs.CtxInfo(ctx, "[config] reloaded %s", path)
		onChange(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timerMu.Unlock()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, reload)
			timerMu.Unlock()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logs.CtxWarn(ctx, "[config] watcher error: %v", err)
		}
	}
}

func Watch(ctx context.Context, onChange func(*Config)) error {
	return defaultManager.Watch(ctx, onChange)
}

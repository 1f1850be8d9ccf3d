package reminder

import (
	"context"
	"sync"

	"github.com/tgifai/reminder/internal/config"
	"github.com/tgifai/reminder/internal/pkg/logs"
)

var (
	globalMu        sync.RWMutex
	globalScheduler *Scheduler
)

// Init creates the global scheduler. Call Start afterwards.
func Init(opts Options) *Scheduler {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalScheduler = NewScheduler(opts)
	return globalScheduler
}

// Default returns the global scheduler, or nil if Init has not been called.
func Default() *Scheduler {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalScheduler
}

func Start(ctx context.Context) error {
	s := Default()
	if s == nil {
		return ErrNotInitialized
	}
	return s.Start(ctx)
}

// Stop gracefully stops the global scheduler. Safe to call if Init was never
// called.
func Stop(ctx context.Context) {
	s := Default()
	if s == nil {
		return
	}
	s.Stop(ctx)
	logs.CtxInfo(ctx, "[reminder] global scheduler stopped")
}

// Apply hands a reloaded configuration to the global scheduler.
func Apply(ctx context.Context, cfg config.ReminderConfig) error {
	s := Default()
	if s == nil {
		return ErrNotInitialized
	}
	return s.Apply(ctx, cfg)
}

package providers

import (
	"github.com/samber/do/v2"

	"github.com/vigilapp/vigil/internal/config"
	"github.com/vigilapp/vigil/internal/logger"
	"github.com/vigilapp/vigil/internal/ratelimit"
	"github.com/vigilapp/vigil/internal/watcher"
)

// throttledListener drops change callbacks for paths reporting faster
// than the configured rate. Adds, removes, and errors always pass, so
// nothing appearing or disappearing is ever lost to the throttle.
type throttledListener struct {
	inner   watcher.Listener
	limiter *ratelimit.KeyedRateLimiter
}

func (t *throttledListener) OnAddFile(path string) error { return t.inner.OnAddFile(path) }

func (t *throttledListener) OnAddDirectory(path string) error { return t.inner.OnAddDirectory(path) }

func (t *throttledListener) OnChangeFile(path string) error {
	if !t.limiter.Allow(path) {
		return nil
	}
	return t.inner.OnChangeFile(path)
}

func (t *throttledListener) OnChangeDirectory(path string) error {
	if !t.limiter.Allow(path) {
		return nil
	}
	return t.inner.OnChangeDirectory(path)
}

func (t *throttledListener) OnRemoveFile(path string) error { return t.inner.OnRemoveFile(path) }

func (t *throttledListener) OnRemoveDirectory(path string) error {
	return t.inner.OnRemoveDirectory(path)
}

func (t *throttledListener) OnError(path string, err error) { t.inner.OnError(path, err) }

// ListenerHandle wraps the event consumer with shutdown capability.
type ListenerHandle struct {
	watcher.Listener
	limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *ListenerHandle) Shutdown() error {
	if h.limiter != nil {
		h.limiter.Stop()
	}
	return nil
}

// ProvideListener provides the daemon's event consumer: a logging
// listener, throttled per path when configured.
func ProvideListener(i do.Injector) (*ListenerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var listener watcher.Listener = watcher.NewLogListener(log.Logger)
	var limiter *ratelimit.KeyedRateLimiter
	if cfg.Throttle.Enabled {
		limiter = ratelimit.New(cfg.Throttle.EventsPerSecond, cfg.Throttle.Burst)
		listener = &throttledListener{inner: listener, limiter: limiter}
	}

	return &ListenerHandle{Listener: listener, limiter: limiter}, nil
}

// WatcherHandle wraps the file watcher with shutdown capability.
type WatcherHandle struct {
	*watcher.Watcher
}

// Shutdown implements do.Shutdownable.
func (h *WatcherHandle) Shutdown() error {
	return h.Watcher.Close()
}

// ProvideWatcher provides the file system watcher with every configured
// root added. The initial scan of each root completes before this
// returns.
func ProvideWatcher(i do.Injector) (*WatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	lh := do.MustInvoke[*ListenerHandle](i)

	w, err := watcher.New(lh.Listener, log.Logger, watcher.Options{
		IgnorePatterns: cfg.Watch.IgnorePatterns,
		IgnoreHidden:   cfg.Watch.IgnoreHidden,
	})
	if err != nil {
		return nil, err
	}

	for _, root := range cfg.Watch.Roots {
		if err := w.Add(root); err != nil {
			_ = w.Close()
			return nil, err
		}
		log.Info("Watching root", "path", root)
	}

	return &WatcherHandle{Watcher: w}, nil
}

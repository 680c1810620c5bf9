// Package reconciler runs the background refresh loop: a periodic reload
// of registry state from the store so the dashboard converges on whatever
// was committed remotely. There is no device probing here; "refresh" is a
// re-read, not a network scan.
package reconciler

import (
	"context"
	"time"

	"switchdeck/internal/logging"
	"switchdeck/internal/registry"
)

// Run reloads the registry every interval until ctx is cancelled.
// Intended to be started as a goroutine from main.
func Run(ctx context.Context, reg *registry.Registry, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := reg.List(ctx); err != nil {
				logging.Logger.WithError(err).Warn("background reconcile failed")
				continue
			}
			logging.Logger.Debug("background reconcile completed")
		}
	}
}

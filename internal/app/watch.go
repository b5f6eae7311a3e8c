package app

import (
	"context"

	"github.com/vk/pipecanvas/internal/broadcast"
)

// watch tails the lifecycle events of a running editor server until ctx is
// done.
func (a *App) watch(ctx context.Context) error {
	a.logger.Info("👀 Watching pipeline events.", "url", a.config.WatchURL)
	return broadcast.Watch(ctx, a.config.WatchURL, broadcast.DialOptions{}, func(event string, p broadcast.Payload) {
		attrs := []any{"event", event, "run_id", p.RunID, "step_id", p.StepID, "label", p.Label, "status", p.Status}
		if p.Error != "" {
			attrs = append(attrs, "error", p.Error)
		}
		a.logger.Info("Pipeline event.", attrs...)
	})
}

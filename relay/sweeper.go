package relay

import (
	"context"
	"log/slog"
	"time"
)

// RunCleanupSweeper periodically evicts stale bot data so long-lived
// processes do not accumulate entries for meetings that ended without a
// fresh deployment. Returns when ctx is done. An interval <= 0 disables the
// sweeper entirely.
func RunCleanupSweeper(ctx context.Context, svc *Service, interval time.Duration) error {
	if interval <= 0 {
		slog.Info("cleanup sweeper disabled")
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	slog.Info("cleanup sweeper started", slog.Duration("interval", interval))
	for {
		select {
		case <-ticker.C:
			if kept, ok := svc.Cleanup(ctx); ok {
				slog.Debug("cleanup sweep done", slog.String("kept_bot_id", kept))
			} else {
				slog.Debug("cleanup sweep done, no active bot identified")
			}
		case <-ctx.Done():
			return nil
		}
	}
}

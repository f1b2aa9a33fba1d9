package logging

import (
	"log/slog"
	"time"
)

// Purger deletes persisted log records older than a cutoff.
type Purger interface {
	PurgeBefore(cutoff time.Time) (int64, error)
}

// StartCleanup runs a daily goroutine that deletes system logs older than retention.
func StartCleanup(p Purger, retention time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runCleanup(p, retention, time.Now())
			case <-done:
				return
			}
		}
	}()
}

func runCleanup(p Purger, retention time.Duration, now time.Time) {
	deleted, err := p.PurgeBefore(now.Add(-retention))
	if err != nil {
		slog.Error("log cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("log cleanup completed", "deleted", deleted)
	}
}

package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/denimhub/dashboard/internal/metrics"
)

// AttemptSweeper drops expired login attempt records
type AttemptSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// AuditPurger deletes audit rows older than a number of days
type AuditPurger interface {
	Cleanup(ctx context.Context, olderThanDays int) (int64, error)
}

// CleanupManager periodically sweeps expired attempt records and purges old
// audit rows. Either task may be nil.
type CleanupManager struct {
	sweeper       AttemptSweeper
	purger        AuditPurger
	retentionDays int
	metrics       *metrics.Metrics
	logger        *slog.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	sweeper AttemptSweeper,
	purger AuditPurger,
	retentionDays int,
	m *metrics.Metrics,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		sweeper:       sweeper,
		purger:        purger,
		retentionDays: retentionDays,
		metrics:       m,
		logger:        logger,
		interval:      interval,
		stopCh:        make(chan struct{}),
	}
}

// Start runs a cleanup immediately and then every interval until Stop or ctx ends
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			cm.RunOnce(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// RunOnce performs a single cleanup pass
func (cm *CleanupManager) RunOnce(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if cm.sweeper != nil {
		removed, err := cm.sweeper.Sweep(cleanupCtx)
		if err != nil {
			cm.logger.Error("failed to sweep login attempts", slog.Any("error", err))
		} else if removed > 0 {
			cm.metrics.AddSwept(removed)
			cm.logger.Info("expired login attempts swept", slog.Int64("removed", removed))
		}
	}

	if cm.purger != nil && cm.retentionDays > 0 {
		rowsDeleted, err := cm.purger.Cleanup(cleanupCtx, cm.retentionDays)
		if err != nil {
			cm.logger.Error("failed to purge audit logs", slog.Any("error", err))
		} else if rowsDeleted > 0 {
			cm.metrics.AddPurged(rowsDeleted)
			cm.logger.Info("audit log retention cleanup completed",
				slog.Int64("rows_deleted", rowsDeleted),
				slog.Int("retention_days", cm.retentionDays))
		}
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}

package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ndump/internal/logging"
	"ndump/internal/queue"
)

const heartbeatInterval = 15 * time.Second

// heartbeatMonitor keeps the last_heartbeat column fresh while a stage runs,
// so a restart can tell abandoned items from slow ones.
type heartbeatMonitor struct {
	store  *queue.Store
	logger *slog.Logger
}

func newHeartbeatMonitor(store *queue.Store, logger *slog.Logger) *heartbeatMonitor {
	return &heartbeatMonitor{
		store:  store,
		logger: logging.NewComponentLogger(logger, "workflow-heartbeat"),
	}
}

// startLoop updates the item heartbeat until the context is cancelled.
func (h *heartbeatMonitor) startLoop(ctx context.Context, wg *sync.WaitGroup, itemID int64) {
	defer wg.Done()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.store.UpdateHeartbeat(ctx, itemID); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				h.logger.Warn("heartbeat update failed",
					logging.Int64(logging.FieldItemID, itemID), logging.Error(err))
			}
		}
	}
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ndump/internal/logging"
	"ndump/internal/queue"
	"ndump/internal/services"
)

func (m *Manager) runWorker(ctx context.Context, ln lane) {
	defer m.wg.Done()
	logger := m.logger.With(logging.String(logging.FieldLane, ln.name))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item, err := m.store.ClaimNext(ctx, ln.from, ln.processing)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			logger.Error("failed to claim next queue item", logging.Error(err))
			m.sleep(ctx, m.retryWait)
			continue
		}
		if item == nil {
			m.sleep(ctx, m.pollInterval)
			continue
		}

		if err := m.processItem(ctx, ln, logger, item); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) processItem(ctx context.Context, ln lane, laneLogger *slog.Logger, item *queue.Item) error {
	stageCtx := services.WithRequestID(
		services.WithLane(
			services.WithStage(
				services.WithItemID(ctx, item.ID), ln.name), ln.name), uuid.NewString())
	logger := logging.WithContext(stageCtx, laneLogger)

	start := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("display_name", item.DisplayName))

	item.ErrorMessage = ""
	if err := ln.handler.Prepare(stageCtx, item); err != nil {
		m.handleStageFailure(stageCtx, logger, ln, item, err)
		return err
	}
	if err := m.store.Update(stageCtx, item); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		logger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	execErr := m.executeWithHeartbeat(stageCtx, ln, item)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			logger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(stageCtx, logger, ln, item, execErr)
		return execErr
	}

	item.LastHeartbeat = nil
	if err := m.store.Update(stageCtx, item); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		logger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(item.Status)),
		logging.Duration("stage_duration", time.Since(start)))
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, ln lane, item *queue.Item) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.startLoop(hbCtx, &hbWG, item.ID)

	execErr := ln.handler.Execute(ctx, item)
	hbCancel()
	hbWG.Wait()
	return execErr
}

// handleStageFailure routes the error either to manual review or to the
// failed status, then persists the outcome.
func (m *Manager) handleStageFailure(ctx context.Context, logger *slog.Logger, ln lane, item *queue.Item, stageErr error) {
	m.setLastError(stageErr)
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = fmt.Sprintf("%s failed without error detail", ln.name)
	}

	if services.NeedsReview(stageErr) {
		item.SetReview(message)
		logger.Warn("item parked for review",
			logging.String(logging.FieldEventType, "stage_review"),
			logging.String("reason", message))
	} else {
		item.SetFailed(message)
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Error(stageErr))
	}

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("shutting down, could not persist stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

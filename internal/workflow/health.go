package workflow

import (
	"context"

	"ndump/internal/queue"
	"ndump/internal/stage"
)

// HealthReport aggregates stage readiness and queue counts.
type HealthReport struct {
	Stages []stage.Health
	Queue  queue.HealthSummary
	Ready  bool
}

// Health probes every configured stage plus the queue store.
func (m *Manager) Health(ctx context.Context) (HealthReport, error) {
	report := HealthReport{Ready: true}
	for _, ln := range m.lanes {
		health := ln.handler.HealthCheck(ctx)
		report.Stages = append(report.Stages, health)
		if !health.Ready {
			report.Ready = false
		}
	}
	summary, err := m.store.Health(ctx)
	if err != nil {
		report.Ready = false
		return report, err
	}
	report.Queue = summary
	return report, nil
}

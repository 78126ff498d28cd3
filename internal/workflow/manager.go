package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ndump/internal/config"
	"ndump/internal/logging"
	"ndump/internal/queue"
	"ndump/internal/stage"
)

// StageSet bundles the concrete handlers the manager orchestrates.
type StageSet struct {
	Identifier stage.Handler
	Transcoder stage.Handler
	Organizer  stage.Handler
}

// lane binds a handler to the queue statuses it consumes and produces.
// Workers claim items atomically, so a lane can run several in parallel.
type lane struct {
	name       string
	handler    stage.Handler
	from       queue.Status
	processing queue.Status
	workers    int
}

// Manager coordinates queue processing across the identify, transcode, and
// organize lanes.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration
	retryWait    time.Duration
	lanes        []lane
	heartbeat    *heartbeatMonitor

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a workflow manager over the supplied stage handlers.
// Transcoding runs cfg.Transcode.Workers workers; the other lanes run one.
func NewManager(cfg *config.Config, store *queue.Store, stages StageSet, logger *slog.Logger) *Manager {
	base := logging.NewComponentLogger(logger, "workflow")
	transcodeWorkers := cfg.Transcode.Workers
	if transcodeWorkers < 1 {
		transcodeWorkers = 1
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       base,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryWait:    time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		heartbeat:    newHeartbeatMonitor(store, base),
		lanes: []lane{
			{
				name:       "identify",
				handler:    stages.Identifier,
				from:       queue.StatusPending,
				processing: queue.StatusIdentifying,
				workers:    1,
			},
			{
				name:       "transcode",
				handler:    stages.Transcoder,
				from:       queue.StatusIdentified,
				processing: queue.StatusTranscoding,
				workers:    transcodeWorkers,
			},
			{
				name:       "organize",
				handler:    stages.Organizer,
				from:       queue.StatusTranscoded,
				processing: queue.StatusOrganizing,
				workers:    1,
			},
		},
	}
}

// Start rolls stuck items back to their stable statuses and launches the
// lane workers. It returns immediately; processing continues until Stop or
// context cancellation.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	for _, ln := range m.lanes {
		if ln.handler == nil {
			return errors.New("workflow stages not configured")
		}
	}

	reset, err := m.store.ResetStuckProcessing(ctx)
	if err != nil {
		return err
	}
	if reset > 0 {
		m.logger.Info("reset stuck items", logging.Int64("count", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	for _, ln := range m.lanes {
		for i := 0; i < ln.workers; i++ {
			m.wg.Add(1)
			go m.runWorker(runCtx, ln)
		}
	}
	return nil
}

// Stop terminates background processing and waits for in-flight stages.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether lane workers are active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastError returns the most recent lane failure, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

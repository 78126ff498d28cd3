package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ndump/internal/logging"
	"ndump/internal/queue"
	"ndump/internal/services"
	"ndump/internal/stage"
	"ndump/internal/testsupport"
	"ndump/internal/workflow"
)

// fakeHandler advances items to done and optionally fails first.
type fakeHandler struct {
	name string
	done queue.Status
	err  error
}

func (f *fakeHandler) Prepare(_ context.Context, item *queue.Item) error {
	item.SetProgress(f.name, f.name+" started", 0)
	return nil
}

func (f *fakeHandler) Execute(_ context.Context, item *queue.Item) error {
	if f.err != nil {
		return f.err
	}
	item.Status = f.done
	item.SetProgress(f.name, f.name+" finished", 100)
	return nil
}

func (f *fakeHandler) HealthCheck(_ context.Context) stage.Health {
	return stage.Healthy(f.name)
}

func stages(identifyErr, transcodeErr error) workflow.StageSet {
	return workflow.StageSet{
		Identifier: &fakeHandler{name: "identify", done: queue.StatusIdentified, err: identifyErr},
		Transcoder: &fakeHandler{name: "transcode", done: queue.StatusTranscoded, err: transcodeErr},
		Organizer:  &fakeHandler{name: "organize", done: queue.StatusCompleted},
	}
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if item.Status == want {
			return item
		}
		time.Sleep(50 * time.Millisecond)
	}
	item, _ := store.GetByID(context.Background(), id)
	t.Fatalf("item %d never reached %s (last status %s)", id, want, item.Status)
	return nil
}

func TestManagerRunsFullPipeline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)

	manager := workflow.NewManager(cfg, store, stages(nil, nil), logging.NewNop())
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	item := testsupport.NewItem(t, store, "/dumps/game.iso", "/staging/game.iso", "game", "abc123", 64)
	final := waitForStatus(t, store, item.ID, queue.StatusCompleted)
	if final.ErrorMessage != "" {
		t.Fatalf("unexpected error message %q", final.ErrorMessage)
	}
}

func TestManagerParksReviewErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)

	identifyErr := services.Wrap(services.ErrUnknownFormat, "identify", "classify", "No known signature", nil)
	manager := workflow.NewManager(cfg, store, stages(identifyErr, nil), logging.NewNop())
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	item := testsupport.NewItem(t, store, "/dumps/blob.bin", "/staging/blob.bin", "blob", "def456", 64)
	final := waitForStatus(t, store, item.ID, queue.StatusReview)
	if !final.NeedsReview {
		t.Fatal("expected review flag set")
	}
	if final.ReviewReason == "" {
		t.Fatal("expected a review reason")
	}
}

func TestManagerMarksTransientErrorsFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)

	transcodeErr := services.Wrap(services.ErrTranscodeFailed, "transcode", "chdman create", "Tool exited non-zero", errors.New("exit status 1"))
	manager := workflow.NewManager(cfg, store, stages(nil, transcodeErr), logging.NewNop())
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	item := testsupport.NewItem(t, store, "/dumps/game.iso", "/staging/game.iso", "game", "0ff1ce", 64)
	final := waitForStatus(t, store, item.ID, queue.StatusFailed)
	if final.NeedsReview {
		t.Fatal("transcode failures should not be flagged for review")
	}
	if final.ErrorMessage == "" {
		t.Fatal("expected an error message")
	}
}

func TestManagerResetsStuckItemsOnStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewItem(t, store, "/dumps/game.iso", "/staging/game.iso", "game", "c0ffee", 64)
	item.Status = queue.StatusTranscoding
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	manager := workflow.NewManager(cfg, store, stages(nil, nil), logging.NewNop())
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	// The rollback lands on identified, so the item resumes from transcode.
	waitForStatus(t, store, item.ID, queue.StatusCompleted)
}

func TestManagerStartRequiresHandlers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	manager := workflow.NewManager(cfg, store, workflow.StageSet{}, logging.NewNop())
	if err := manager.Start(context.Background()); err == nil {
		t.Fatal("expected error for missing handlers")
	}
}

func TestManagerHealthAggregates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	manager := workflow.NewManager(cfg, store, stages(nil, nil), logging.NewNop())
	report, err := manager.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !report.Ready {
		t.Fatalf("expected ready report, got %+v", report)
	}
	if len(report.Stages) != 3 {
		t.Fatalf("expected 3 stage probes, got %d", len(report.Stages))
	}
}

func TestInstanceLockExcludesSecondProcess(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	lock, err := workflow.AcquireInstanceLock(cfg)
	if err != nil {
		t.Fatalf("AcquireInstanceLock: %v", err)
	}
	defer lock.Release()

	if _, err := workflow.AcquireInstanceLock(cfg); err == nil {
		t.Fatal("expected second lock acquisition to fail")
	}
}

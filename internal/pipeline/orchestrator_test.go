package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/config"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/ctxcache"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/versions"
)

func testConfig() config.Config {
	return config.Config{
		WorkerCount:  2,
		MaxQueueSize: 4,
		JobTTL:       time.Hour,
		DefaultTier:  "starter",
	}
}

func waitForStatus(t *testing.T, job *Job, want JobStatus) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := job.Snapshot()
		if snap.Status == want {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %q (last %q)", job.ID, want, job.Snapshot().Status)
	return JobSnapshot{}
}

func TestOrchestrator_RunsJobs(t *testing.T) {
	llm := &fakeCompleter{text: "continued"}
	o := NewOrchestrator(testConfig(), versions.New(""), llm, ctxcache.NewMemoryCache(time.Minute), testLogger())
	o.Start(context.Background())
	defer o.Stop()

	job, err := o.Submit(Request{Context: "It began with a letter."})
	if err != nil {
		t.Fatal(err)
	}
	if job.Request.Tier != "starter" {
		t.Errorf("expected default tier, got %q", job.Request.Tier)
	}
	if job.Request.Strategy != "balanced" {
		t.Errorf("expected default strategy, got %q", job.Request.Strategy)
	}

	snap := waitForStatus(t, job, StatusCompleted)
	if snap.Output != "continued" {
		t.Errorf("unexpected output %q", snap.Output)
	}
	if o.GetJob(job.ID) != job {
		t.Error("expected job to be retrievable by id")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	// Not started, so nothing drains the queue.
	o := NewOrchestrator(cfg, versions.New(""), &fakeCompleter{}, nil, testLogger())

	if _, err := o.Submit(Request{Context: "a"}); err != nil {
		t.Fatal(err)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
	_, err := o.Submit(Request{Context: "b"})
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	o := NewOrchestrator(testConfig(), versions.New(""), &fakeCompleter{}, nil, testLogger())
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	if _, err := o.Submit(Request{Context: "late"}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

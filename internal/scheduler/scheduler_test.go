package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/toannhu96/gia-vang-365/internal/config"
)

type fakeJob struct {
	calls int
	err   error
}

func (f *fakeJob) RecordSnapshot(context.Context) error {
	f.calls++
	return f.err
}

func (f *fakeJob) Broadcast(context.Context) error {
	f.calls++
	return f.err
}

func testConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Timezone:      "Asia/Ho_Chi_Minh",
		SnapshotSpec:  "0 */6 * * *",
		BroadcastSpec: "0 7 * * *",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := New(testConfig(), &fakeJob{}, &fakeJob{}, discardLogger()); err != nil {
		t.Fatalf("New: %v", err)
	}
}

func TestNew_NilBroadcasterIsAllowed(t *testing.T) {
	t.Parallel()

	if _, err := New(testConfig(), &fakeJob{}, nil, discardLogger()); err != nil {
		t.Fatalf("New without broadcaster: %v", err)
	}
}

func TestNew_RejectsBadSpec(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.SnapshotSpec = "not a cron spec"
	if _, err := New(cfg, &fakeJob{}, nil, discardLogger()); err == nil {
		t.Fatal("expected error for malformed cron spec")
	}
}

func TestNew_RejectsUnknownTimezone(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Timezone = "Nowhere/Imaginary"
	if _, err := New(cfg, &fakeJob{}, nil, discardLogger()); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestJobWrapperSwallowsErrors(t *testing.T) {
	t.Parallel()

	s := &Scheduler{logger: discardLogger()}
	job := &fakeJob{err: errors.New("feed down")}

	// A failing job must not panic the cron goroutine.
	s.job("price snapshot", job.RecordSnapshot)()

	if job.calls != 1 {
		t.Fatalf("job calls = %d, want 1", job.calls)
	}
}

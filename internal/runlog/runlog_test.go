package runlog_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"anitransfer/internal/runlog"
)

func openStore(t *testing.T) *runlog.Store {
	t.Helper()
	store, err := runlog.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openStore(t)
	started := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	runs := []runlog.Run{
		{ID: "run-1", StartedAt: started, FinishedAt: started.Add(time.Minute), Entries: 10, Resolved: 8, Unmatched: 2},
		{ID: "run-2", StartedAt: started.Add(time.Hour), FinishedAt: started.Add(time.Hour + time.Minute), Entries: 5, Resolved: 5, Aborted: true},
	}
	for _, run := range runs {
		if err := store.Record(context.Background(), run); err != nil {
			t.Fatalf("Record %s: %v", run.ID, err)
		}
	}

	listed, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(listed))
	}
	if listed[0].ID != "run-2" {
		t.Fatalf("expected newest run first, got %q", listed[0].ID)
	}
	if !listed[0].Aborted || listed[1].Aborted {
		t.Fatalf("aborted flags wrong: %+v", listed)
	}
	if got := listed[1].Duration(); got != time.Minute {
		t.Fatalf("Duration = %v, want 1m", got)
	}
	if !listed[1].StartedAt.Equal(started) {
		t.Fatalf("StartedAt round-trip failed: %v", listed[1].StartedAt)
	}
}

func TestListLimit(t *testing.T) {
	store := openStore(t)
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		run := runlog.Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Hour), FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute)}
		if err := store.Record(context.Background(), run); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	listed, err := store.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "c" {
		t.Fatalf("unexpected listing: %+v", listed)
	}
}

func TestRecordRequiresID(t *testing.T) {
	store := openStore(t)
	if err := store.Record(context.Background(), runlog.Run{}); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestRecordRejectsDuplicateID(t *testing.T) {
	store := openStore(t)
	run := runlog.Run{ID: "dup", StartedAt: time.Now(), FinishedAt: time.Now()}
	if err := store.Record(context.Background(), run); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(context.Background(), run); err == nil {
		t.Fatal("expected primary key violation")
	}
}

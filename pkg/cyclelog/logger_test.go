package cyclelog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jllopis/praxis/pkg/core"
)

func record(kind string, success bool) core.CycleRecord {
	return core.CycleRecord{
		SelectedAction:   core.Action{Kind: kind},
		ExecutionSuccess: success,
		AgentStateAfter:  core.StateRunning,
	}
}

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	l := NewLogger(nil)
	var lastID uint64
	var lastTime time.Time
	for i := 0; i < 10; i++ {
		rec := l.Append(context.Background(), record("a", true))
		if rec.CycleID != lastID+1 {
			t.Fatalf("expected cycle id %d, got %d", lastID+1, rec.CycleID)
		}
		if rec.Timestamp.Before(lastTime) {
			t.Fatalf("timestamps must be non-decreasing")
		}
		lastID = rec.CycleID
		lastTime = rec.Timestamp
	}
	if l.LastCycleID() != 10 {
		t.Fatalf("expected last cycle id 10, got %d", l.LastCycleID())
	}
}

func TestRecentWindow(t *testing.T) {
	l := NewLogger(nil, WithWindowSize(5))
	for i := 0; i < 8; i++ {
		l.Append(context.Background(), record("a", true))
	}
	if l.Len() != 5 {
		t.Fatalf("expected window trimmed to 5, got %d", l.Len())
	}
	recent := l.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recent))
	}
	if recent[0].CycleID != 6 || recent[2].CycleID != 8 {
		t.Fatalf("expected oldest-first ids 6..8, got %d..%d", recent[0].CycleID, recent[2].CycleID)
	}
}

type failingStore struct{}

func (failingStore) Append(context.Context, core.CycleRecord) error {
	return errors.New("disk full")
}

func (failingStore) List(context.Context, Filter) ([]core.CycleRecord, error) {
	return nil, nil
}

func TestStoreFailureDoesNotFailAppend(t *testing.T) {
	l := NewLogger(failingStore{})
	rec := l.Append(context.Background(), record("a", true))
	if rec.CycleID != 1 {
		t.Fatalf("append must survive store failure")
	}
	if l.Len() != 1 {
		t.Fatalf("window must still hold the record")
	}
}

func TestMemoryStoreFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i, rec := range []core.CycleRecord{
		record("read", true),
		record("write", false),
		record("read", false),
	} {
		rec.CycleID = uint64(i + 1)
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.List(ctx, Filter{ActionKind: "read"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 read records, got %d", len(got))
	}

	got, err = s.List(ctx, Filter{FailuresOnly: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(got))
	}

	got, err = s.List(ctx, Filter{Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].CycleID != 1 {
		t.Fatalf("expected first record only, got %+v", got)
	}
}

package metacog

import (
	"strings"
	"testing"

	"github.com/jllopis/praxis/pkg/core"
)

func cycles(kinds ...string) []core.CycleRecord {
	out := make([]core.CycleRecord, len(kinds))
	for i, kind := range kinds {
		out[i] = core.CycleRecord{
			CycleID:        uint64(i + 1),
			SelectedAction: core.Action{Kind: kind},
		}
	}
	return out
}

func TestDetectsAlternatingPair(t *testing.T) {
	d := NewLoopDetector(4, 3)
	status := d.Analyze(cycles("A", "B", "A", "B", "A", "B"))
	if !status.IsStuck {
		t.Fatalf("expected stuck on [A B A B A B]")
	}
	if status.SequenceLength != 2 || status.Repetitions != 3 {
		t.Fatalf("expected pair repeated 3 times, got %+v", status)
	}
	if !strings.Contains(status.Description, "A B") {
		t.Fatalf("description must identify the subsequence, got %q", status.Description)
	}
}

func TestNoLoopOnDistinctActions(t *testing.T) {
	d := NewLoopDetector(4, 3)
	if status := d.Analyze(cycles("A", "B", "C", "D")); status.IsStuck {
		t.Fatalf("distinct actions must not be a loop: %+v", status)
	}
}

func TestSingleActionLoop(t *testing.T) {
	d := NewLoopDetector(4, 3)
	status := d.Analyze(cycles("retry", "retry", "retry"))
	if !status.IsStuck || status.SequenceLength != 1 {
		t.Fatalf("expected single-action loop, got %+v", status)
	}
}

func TestPatternBreakResetsDetection(t *testing.T) {
	d := NewLoopDetector(4, 3)
	records := cycles("A", "B", "A", "B", "A", "B", "C")
	if status := d.Analyze(records); status.IsStuck {
		t.Fatalf("trailing C must break the pattern: %+v", status)
	}
}

func TestImprovingOutcomeIsNotALoop(t *testing.T) {
	d := NewLoopDetector(4, 3)
	records := cycles("A", "A", "A")
	// The last repetition succeeds: the agent is converging, not stuck.
	records[2].ExecutionSuccess = true
	if status := d.Analyze(records); status.IsStuck {
		t.Fatalf("improving outcomes must not count as stuck: %+v", status)
	}
}

func TestWorseningOutcomeStillALoop(t *testing.T) {
	d := NewLoopDetector(4, 3)
	records := cycles("A", "A", "A", "A")
	records[0].ExecutionSuccess = true
	records[0].Reward = 1
	if status := d.Analyze(records); !status.IsStuck {
		t.Fatalf("worsening outcomes must count as stuck")
	}
}

func TestPrefersLongestSubsequence(t *testing.T) {
	d := NewLoopDetector(4, 3)
	status := d.Analyze(cycles("A", "A", "A", "A", "A", "A"))
	if !status.IsStuck {
		t.Fatalf("expected stuck")
	}
	// Six identical actions repeat both as pairs (3 times) and singles
	// (6 times); the longest qualifying subsequence wins.
	if status.SequenceLength != 2 {
		t.Fatalf("expected pair subsequence, got %+v", status)
	}
}

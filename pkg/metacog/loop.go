package metacog

import (
	"fmt"
	"strings"

	"github.com/jllopis/praxis/pkg/core"
)

// LoopStatus describes the currently detected repetition, if any.
type LoopStatus struct {
	IsStuck        bool
	SequenceLength int
	Repetitions    int
	Sequence       []string
	Description    string
}

// LoopDetector scans the trailing action sequence for the longest repeating
// subsequence. Detection requires the subsequence to repeat consecutively at
// least minRepetitions times with a same-or-worsening outcome on each
// repetition; a single cycle that breaks the pattern resets the status.
type LoopDetector struct {
	maxSequenceLen int
	minRepetitions int
}

// NewLoopDetector creates a detector with the given bounds.
func NewLoopDetector(maxSequenceLen, minRepetitions int) *LoopDetector {
	if maxSequenceLen <= 0 {
		maxSequenceLen = 4
	}
	if minRepetitions <= 0 {
		minRepetitions = 3
	}
	return &LoopDetector{
		maxSequenceLen: maxSequenceLen,
		minRepetitions: minRepetitions,
	}
}

// Analyze inspects the trailing cycle window, oldest first.
func (d *LoopDetector) Analyze(records []core.CycleRecord) LoopStatus {
	kinds := make([]string, len(records))
	for i, rec := range records {
		kinds[i] = rec.SelectedAction.Kind
	}

	best := LoopStatus{}
	for seqLen := d.maxSequenceLen; seqLen >= 1; seqLen-- {
		if seqLen*d.minRepetitions > len(kinds) {
			continue
		}
		reps := trailingRepetitions(kinds, seqLen)
		if reps < d.minRepetitions {
			continue
		}
		if !outcomesWorsening(records, seqLen, reps) {
			continue
		}
		seq := kinds[len(kinds)-seqLen:]
		best = LoopStatus{
			IsStuck:        true,
			SequenceLength: seqLen,
			Repetitions:    reps,
			Sequence:       append([]string(nil), seq...),
			Description: fmt.Sprintf("[%s] repeated %d times",
				strings.Join(seq, " "), reps),
		}
		break
	}
	return best
}

// trailingRepetitions counts how many times the trailing block of seqLen
// kinds repeats consecutively at the end of the sequence.
func trailingRepetitions(kinds []string, seqLen int) int {
	if seqLen <= 0 || len(kinds) < seqLen {
		return 0
	}
	tail := kinds[len(kinds)-seqLen:]
	reps := 0
	for start := len(kinds) - seqLen; start >= 0; start -= seqLen {
		match := true
		for i := 0; i < seqLen; i++ {
			if kinds[start+i] != tail[i] {
				match = false
				break
			}
		}
		if !match {
			break
		}
		reps++
	}
	return reps
}

// outcomesWorsening checks that each repetition's outcome is the same or
// worse than the one before it, judged by success count first and reward
// sum second.
func outcomesWorsening(records []core.CycleRecord, seqLen, reps int) bool {
	type outcome struct {
		successes int
		reward    float64
	}
	outcomes := make([]outcome, reps)
	base := len(records) - seqLen*reps
	for r := 0; r < reps; r++ {
		for i := 0; i < seqLen; i++ {
			rec := records[base+r*seqLen+i]
			if rec.ExecutionSuccess {
				outcomes[r].successes++
			}
			outcomes[r].reward += rec.Reward
		}
	}
	const epsilon = 1e-9
	for r := 1; r < reps; r++ {
		if outcomes[r].successes > outcomes[r-1].successes {
			return false
		}
		if outcomes[r].reward > outcomes[r-1].reward+epsilon {
			return false
		}
	}
	return true
}

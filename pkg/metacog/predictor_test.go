package metacog

import (
	"math"
	"testing"

	"github.com/jllopis/praxis/pkg/core"
)

func history(kind string, attempts, successes int) []core.CycleRecord {
	out := make([]core.CycleRecord, attempts)
	for i := range out {
		out[i] = core.CycleRecord{
			SelectedAction:   core.Action{Kind: kind},
			ExecutionSuccess: i < successes,
		}
	}
	return out
}

func TestRiskFromSuccessRate(t *testing.T) {
	p := NewFailurePredictor(0.7)
	p.Observe(history("X", 10, 2))
	if risk := p.Risk("X"); math.Abs(risk-0.8) > 1e-9 {
		t.Fatalf("expected risk 0.8 for 2/10 successes, got %f", risk)
	}
	pred := p.Assess("X", false)
	if !pred.IsHighRisk {
		t.Fatalf("risk 0.8 must exceed threshold 0.7")
	}
}

func TestThresholdBoundary(t *testing.T) {
	p := NewFailurePredictor(0.7)
	p.Observe(history("X", 10, 3))
	pred := p.Assess("X", false)
	if pred.IsHighRisk {
		t.Fatalf("risk 0.7 must not exceed threshold 0.7: %+v", pred)
	}
}

func TestLoopMembershipRaisesRisk(t *testing.T) {
	p := NewFailurePredictor(0.7)
	p.Observe(history("X", 10, 4))
	base := p.Assess("X", false)
	bumped := p.Assess("X", true)
	if bumped.Risk <= base.Risk {
		t.Fatalf("loop membership must raise risk: %f vs %f", bumped.Risk, base.Risk)
	}
	if !bumped.IsHighRisk {
		t.Fatalf("0.6 + loop bump must cross the threshold")
	}
}

func TestUnseenActionHasNoRisk(t *testing.T) {
	p := NewFailurePredictor(0.7)
	if risk := p.Risk("never-ran"); risk != 0 {
		t.Fatalf("unseen kinds must score zero, got %f", risk)
	}
}

func TestPredictorCounters(t *testing.T) {
	p := NewFailurePredictor(0.5)
	p.Observe(history("X", 4, 0))
	p.Assess("X", false)
	p.Assess("Y", false)
	p.NotePrevented()
	stats := p.Stats()
	if stats.TotalPredictions != 2 {
		t.Fatalf("expected 2 predictions, got %d", stats.TotalPredictions)
	}
	if stats.HighRiskPredictions != 1 {
		t.Fatalf("expected 1 high risk prediction, got %d", stats.HighRiskPredictions)
	}
	if stats.FailuresPrevented != 1 {
		t.Fatalf("expected 1 prevented failure, got %d", stats.FailuresPrevented)
	}
}

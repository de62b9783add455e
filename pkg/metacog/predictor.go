package metacog

import (
	"github.com/jllopis/praxis/pkg/core"
)

// Prediction is the failure predictor's judgement of one candidate action.
type Prediction struct {
	Risk       float64
	IsHighRisk bool
}

// PredictorStats are the predictor's own counters. FailuresPrevented is
// incremented only when a high-risk action was not subsequently executed
// because an intervention was substituted.
type PredictorStats struct {
	TotalPredictions    uint64 `yaml:"total_predictions"`
	HighRiskPredictions uint64 `yaml:"high_risk_predictions"`
	FailuresPrevented   uint64 `yaml:"failures_prevented"`
}

// loopRiskBump is added to the base risk when the candidate action sits
// inside the currently detected loop.
const loopRiskBump = 0.2

// FailurePredictor maintains per-action rolling success rates over the
// trailing cycle window.
type FailurePredictor struct {
	threshold float64
	rates     map[string]actionRate
	stats     PredictorStats
}

type actionRate struct {
	attempts  int
	successes int
}

// NewFailurePredictor creates a predictor flagging actions whose risk score
// exceeds threshold.
func NewFailurePredictor(threshold float64) *FailurePredictor {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.7
	}
	return &FailurePredictor{
		threshold: threshold,
		rates:     make(map[string]actionRate),
	}
}

// Observe recomputes per-action success rates from the trailing window.
func (p *FailurePredictor) Observe(records []core.CycleRecord) {
	rates := make(map[string]actionRate, len(p.rates))
	for _, rec := range records {
		rate := rates[rec.SelectedAction.Kind]
		rate.attempts++
		if rec.ExecutionSuccess {
			rate.successes++
		}
		rates[rec.SelectedAction.Kind] = rate
	}
	p.rates = rates
}

// Assess scores a candidate action kind. inLoop marks kinds that appear in
// the currently detected loop; their risk is adjusted upward.
func (p *FailurePredictor) Assess(kind string, inLoop bool) Prediction {
	p.stats.TotalPredictions++
	risk := p.Risk(kind)
	if inLoop {
		risk += loopRiskBump
		if risk > 1 {
			risk = 1
		}
	}
	pred := Prediction{Risk: risk, IsHighRisk: risk > p.threshold}
	if pred.IsHighRisk {
		p.stats.HighRiskPredictions++
	}
	return pred
}

// Risk returns the base risk score (1 - success rate) for a kind. Unseen
// kinds score zero: no evidence, no flag.
func (p *FailurePredictor) Risk(kind string) float64 {
	rate, ok := p.rates[kind]
	if !ok || rate.attempts == 0 {
		return 0
	}
	return 1 - float64(rate.successes)/float64(rate.attempts)
}

// NotePrevented records that a flagged high-risk action was skipped in
// favor of an intervention.
func (p *FailurePredictor) NotePrevented() {
	p.stats.FailuresPrevented++
}

// Stats returns a copy of the predictor counters.
func (p *FailurePredictor) Stats() PredictorStats {
	return p.stats
}

package orchestrator

import (
	"time"

	"github.com/swellproject/swell/internal/domain"
)

// typicalTaskLatency is the rough single-task latency used for
// pre-execution duration estimates.
const typicalTaskLatency = 10 * time.Second

// hybridTaskLatency is the smaller per-task constant for hybrid plans,
// where some tasks overlap.
const hybridTaskLatency = 4 * time.Second

// Aggregator sums per-task cost and estimates wall-clock duration.
type Aggregator struct{}

// NewAggregator creates an aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// TotalCost sums the cost of every task result, including failed tasks
// that consumed tokens before failing.
func (a *Aggregator) TotalCost(results map[string]*domain.TaskResult) float64 {
	var total float64
	for _, r := range results {
		total += r.Cost
	}
	return total
}

// TotalTokens sums input and output token counts across all results.
func (a *Aggregator) TotalTokens(results map[string]*domain.TaskResult) (int, int) {
	var in, out int
	for _, r := range results {
		in += r.InputTokens
		out += r.OutputTokens
	}
	return in, out
}

// EstimateDuration gives a rough pre-execution estimate by strategy:
// a parallel plan takes about one task's latency, a sequential plan scales
// with task count, a hybrid plan scales with a smaller per-task constant.
func (a *Aggregator) EstimateDuration(taskCount int, strategy domain.Strategy) time.Duration {
	if taskCount == 0 {
		return 0
	}
	switch strategy {
	case domain.StrategyParallel:
		return typicalTaskLatency
	case domain.StrategySequential:
		return time.Duration(taskCount) * typicalTaskLatency
	default:
		return time.Duration(taskCount) * hybridTaskLatency
	}
}

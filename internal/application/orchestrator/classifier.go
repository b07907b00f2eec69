package orchestrator

import (
	"sort"
	"strings"

	"github.com/swellproject/swell/internal/domain"
	"github.com/swellproject/swell/internal/registry"
)

// charsPerToken is the fixed heuristic used to approximate token counts
// from prompt length.
const charsPerToken = 4

// minEstimatedOutputTokens floors the output estimate for short prompts.
const minEstimatedOutputTokens = 128

// highComplexityKeywords mark strategic reasoning and synthesis work.
var highComplexityKeywords = []string{
	"analyze", "analysis", "strategy", "strategic", "architect", "design",
	"evaluate", "synthesize", "reason", "plan", "research", "compare",
}

// lowComplexityKeywords mark formatting, extraction and simple queries.
var lowComplexityKeywords = []string{
	"format", "extract", "list", "lookup", "fetch", "parse", "rename",
	"csv", "sort", "count", "simple",
}

// Classifier rates task complexity and selects backends from the registry.
// It is stateless given the immutable registry, so the same inputs always
// produce the same outputs.
type Classifier struct {
	registry *registry.Registry
}

// NewClassifier creates a classifier bound to a backend registry.
func NewClassifier(reg *registry.Registry) *Classifier {
	return &Classifier{registry: reg}
}

// ClassifyComplexity rates a task by keyword lookup over its description
// and prompt. High-complexity keywords win over low-complexity ones; tasks
// matching neither default to medium.
func (c *Classifier) ClassifyComplexity(task *domain.Task) domain.ComplexityTier {
	text := strings.ToLower(task.Description + " " + task.Prompt)

	for _, kw := range highComplexityKeywords {
		if strings.Contains(text, kw) {
			return domain.ComplexityHigh
		}
	}
	for _, kw := range lowComplexityKeywords {
		if strings.Contains(text, kw) {
			return domain.ComplexityLow
		}
	}
	return domain.ComplexityMedium
}

// SelectBackend picks the backend for a task: the preferred backend when it
// names an enabled entry, otherwise the cheapest enabled backend whose
// capability tier covers the task's complexity, otherwise the globally
// cheapest enabled backend.
func (c *Classifier) SelectBackend(task *domain.Task) (*domain.BackendConfig, error) {
	enabled := c.registry.Enabled()
	if len(enabled) == 0 {
		return nil, &domain.ConfigurationError{Reason: "backend registry contains no enabled entries"}
	}

	if task.PreferredBackend != "" {
		if b, ok := c.registry.Get(task.PreferredBackend); ok && b.Enabled {
			return b, nil
		}
	}

	tier := task.Complexity
	if tier == "" {
		tier = c.ClassifyComplexity(task)
	}

	var best *domain.BackendConfig
	for _, b := range enabled {
		if b.Tier().Rank() < tier.Rank() {
			continue
		}
		if best == nil || b.CombinedPrice() < best.CombinedPrice() {
			best = b
		}
	}
	if best != nil {
		return best, nil
	}

	// No backend covers the tier; last resort is the cheapest enabled one.
	best = enabled[0]
	for _, b := range enabled[1:] {
		if b.CombinedPrice() < best.CombinedPrice() {
			best = b
		}
	}
	return best, nil
}

// EstimateCost approximates the cost of running a task on a backend using
// the characters-per-token heuristic. Returns the dollar cost and the
// estimated input/output token counts.
func (c *Classifier) EstimateCost(task *domain.Task, backend *domain.BackendConfig) (float64, int, int) {
	inputTokens := (len(task.Description) + len(task.Prompt)) / charsPerToken
	if inputTokens < 1 {
		inputTokens = 1
	}

	outputTokens := inputTokens / 2
	if outputTokens < minEstimatedOutputTokens {
		outputTokens = minEstimatedOutputTokens
	}

	return backend.Cost(inputTokens, outputTokens), inputTokens, outputTokens
}

// FallbackBackend returns the next enabled backend with strictly higher
// cost than the given one, or nil when none exists. This is the single
// allowed escalation step.
func (c *Classifier) FallbackBackend(backend *domain.BackendConfig) *domain.BackendConfig {
	var next *domain.BackendConfig
	for _, b := range c.registry.Enabled() {
		if b.CombinedPrice() <= backend.CombinedPrice() {
			continue
		}
		if next == nil || b.CombinedPrice() < next.CombinedPrice() {
			next = b
		}
	}
	return next
}

// SortTasks returns a topological order of tasks, breaking ties by
// descending priority and then by original position. The sort is stable,
// so an already-sorted valid list is returned unchanged.
func SortTasks(tasks []*domain.Task) ([]*domain.Task, error) {
	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		index[t.ID] = i
	}

	indegree := make(map[string]int, len(tasks))
	dependents := make(map[string][]string, len(tasks))
	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			if _, ok := index[dep]; !ok {
				continue
			}
			indegree[t.ID]++
			dependents[dep] = append(dependents[dep], t.ID)
		}
	}

	ready := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if indegree[t.ID] == 0 {
			ready = append(ready, t)
		}
	}

	sorted := make([]*domain.Task, 0, len(tasks))
	for len(ready) > 0 {
		sort.SliceStable(ready, func(i, j int) bool {
			if ready[i].Priority != ready[j].Priority {
				return ready[i].Priority > ready[j].Priority
			}
			return index[ready[i].ID] < index[ready[j].ID]
		})

		next := ready[0]
		ready = ready[1:]
		sorted = append(sorted, next)

		for _, id := range dependents[next.ID] {
			indegree[id]--
			if indegree[id] == 0 {
				ready = append(ready, tasks[index[id]])
			}
		}
	}

	if len(sorted) != len(tasks) {
		placed := make(map[string]bool, len(sorted))
		for _, t := range sorted {
			placed[t.ID] = true
		}
		var remaining []string
		for _, t := range tasks {
			if !placed[t.ID] {
				remaining = append(remaining, t.ID)
			}
		}
		return nil, &domain.CycleError{Remaining: remaining}
	}

	return sorted, nil
}

// AnalyzeStrategy resolves the execution strategy for a task list:
// parallel when no task declares dependencies, sequential when the graph
// forms a single chain, hybrid otherwise.
func AnalyzeStrategy(tasks []*domain.Task) domain.Strategy {
	edges := 0
	indegree := make(map[string]int, len(tasks))
	outdegree := make(map[string]int, len(tasks))
	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			edges++
			indegree[t.ID]++
			outdegree[dep]++
		}
	}

	if edges == 0 {
		return domain.StrategyParallel
	}

	if edges == len(tasks)-1 {
		chain := true
		for _, t := range tasks {
			if indegree[t.ID] > 1 || outdegree[t.ID] > 1 {
				chain = false
				break
			}
		}
		if chain {
			return domain.StrategySequential
		}
	}

	return domain.StrategyHybrid
}

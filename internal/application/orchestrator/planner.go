package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/swellproject/swell/internal/domain"
	"github.com/swellproject/swell/internal/ports"
	"github.com/swellproject/swell/internal/registry"
)

const planningPromptTemplate = `You are a task planner. Decompose the request below into a list of subtasks.

Respond with a JSON array only. Each element must have:
  "id": short unique identifier
  "description": what the subtask does
  "prompt": the full prompt to execute the subtask
  "dependsOn": array of ids this subtask needs output from (may be empty)
  "priority": integer, higher runs earlier (optional)
  "complexity": "high", "medium" or "low" (optional)

Request:
%s`

// PlanOptions influence plan generation. An explicit Strategy overrides
// auto-detection from the task graph.
type PlanOptions struct {
	Strategy domain.Strategy
}

// Planner decomposes a user request into an execution plan by calling the
// designated planning backend once and parsing its reply.
type Planner struct {
	registry   *registry.Registry
	classifier *Classifier
	aggregator *Aggregator
	logger     *zap.Logger

	temperature float64
	maxTokens   int
}

// NewPlanner creates a planner bound to a registry and classifier.
func NewPlanner(reg *registry.Registry, classifier *Classifier, aggregator *Aggregator, logger *zap.Logger, temperature float64, maxTokens int) *Planner {
	return &Planner{
		registry:    reg,
		classifier:  classifier,
		aggregator:  aggregator,
		logger:      logger,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// PlanExecution invokes the planning backend and turns its reply into a
// validated ExecutionPlan. A reply with no parseable task array is fatal to
// the orchestration: there is nothing to execute.
func (p *Planner) PlanExecution(ctx context.Context, request string, opts *PlanOptions) (*domain.ExecutionPlan, error) {
	planBackend := p.registry.Planner()
	client, ok := p.registry.Client(planBackend.Name)
	if !ok {
		return nil, &domain.PlanningError{Reason: fmt.Sprintf("no client for planning backend %s", planBackend.Name)}
	}

	resp, err := client.Complete(ctx, &ports.CompletionRequest{
		Prompt:      fmt.Sprintf(planningPromptTemplate, request),
		Model:       planBackend.Model,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		return nil, &domain.PlanningError{Reason: "planning backend call failed", Err: err}
	}

	tasks, err := ParseTaskArray(resp.Text)
	if err != nil {
		return nil, err
	}
	if err := validateTasks(tasks); err != nil {
		return nil, err
	}

	var totalCost float64
	for _, t := range tasks {
		if t.Complexity == "" {
			t.Complexity = p.classifier.ClassifyComplexity(t)
		}
		backend, err := p.classifier.SelectBackend(t)
		if err != nil {
			return nil, &domain.PlanningError{Reason: "backend selection failed", Err: err}
		}
		cost, _, _ := p.classifier.EstimateCost(t, backend)
		totalCost += cost
	}

	strategy := opts.strategyOrDetect(tasks)

	p.logger.Info("execution plan generated",
		zap.Int("tasks", len(tasks)),
		zap.String("strategy", string(strategy)),
		zap.Float64("estimated_cost", totalCost))

	return &domain.ExecutionPlan{
		Tasks:             tasks,
		EstimatedCost:     totalCost,
		EstimatedDuration: p.aggregator.EstimateDuration(len(tasks), strategy),
		Strategy:          strategy,
	}, nil
}

func (o *PlanOptions) strategyOrDetect(tasks []*domain.Task) domain.Strategy {
	if o != nil && o.Strategy != "" {
		return o.Strategy
	}
	return AnalyzeStrategy(tasks)
}

// ParseTaskArray extracts the first well-formed JSON task array from a
// planner reply, tolerating surrounding prose and code fencing. It fails
// loudly when no array-shaped structure can be decoded.
func ParseTaskArray(reply string) ([]*domain.Task, error) {
	text := stripCodeFences(reply)

	for start := strings.IndexByte(text, '['); start >= 0; {
		end := matchBracket(text, start)
		if end < 0 {
			break
		}

		var tasks []*domain.Task
		if err := json.Unmarshal([]byte(text[start:end+1]), &tasks); err == nil && tasks != nil {
			return tasks, nil
		}

		next := strings.IndexByte(text[start+1:], '[')
		if next < 0 {
			break
		}
		start += 1 + next
	}

	return nil, &domain.PlanningError{Reason: "planner reply contains no valid task array"}
}

// stripCodeFences removes markdown code fence lines so a fenced JSON block
// parses like bare JSON.
func stripCodeFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// matchBracket returns the index of the ']' closing the '[' at start,
// skipping brackets inside JSON strings, or -1 when unbalanced.
func matchBracket(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// validateTasks enforces plan invariants: non-empty unique ids and
// dependency references that resolve within the plan.
func validateTasks(tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return &domain.PlanningError{Reason: "planner returned an empty task array"}
	}

	ids := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t == nil || t.ID == "" {
			return &domain.PlanningError{Reason: "task without an id in planner reply"}
		}
		if ids[t.ID] {
			return &domain.PlanningError{Reason: fmt.Sprintf("duplicate task id in planner reply: %s", t.ID)}
		}
		ids[t.ID] = true
	}

	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			if !ids[dep] {
				return &domain.PlanningError{Reason: fmt.Sprintf("task %s depends on unknown task %s", t.ID, dep)}
			}
			if dep == t.ID {
				return &domain.PlanningError{Reason: fmt.Sprintf("task %s depends on itself", t.ID)}
			}
		}
	}

	return nil
}

package domain

import "time"

// ComplexityTier is the coarse task classification driving backend selection.
type ComplexityTier string

const (
	ComplexityLow    ComplexityTier = "low"
	ComplexityMedium ComplexityTier = "medium"
	ComplexityHigh   ComplexityTier = "high"
)

// Rank returns the ordering of a tier for capability comparisons.
func (t ComplexityTier) Rank() int {
	switch t {
	case ComplexityHigh:
		return 3
	case ComplexityMedium:
		return 2
	case ComplexityLow:
		return 1
	default:
		return 0
	}
}

// Strategy is the resolved execution strategy for a plan.
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyParallel   Strategy = "parallel"
	StrategyHybrid     Strategy = "hybrid"
)

// Task is one unit of work assigned to exactly one backend.
//
// The Context bag is populated just before execution with the outputs of
// completed dependencies; it is the only mutable field after planning.
type Task struct {
	ID               string            `json:"id" yaml:"id"`
	Description      string            `json:"description" yaml:"description"`
	Prompt           string            `json:"prompt" yaml:"prompt"`
	Complexity       ComplexityTier    `json:"complexity,omitempty" yaml:"complexity,omitempty"`
	PreferredBackend string            `json:"preferredModel,omitempty" yaml:"preferredModel,omitempty"`
	DependsOn        []string          `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Priority         int               `json:"priority,omitempty" yaml:"priority,omitempty"`
	Context          map[string]string `json:"-" yaml:"-"`
}

// TaskStatus tracks a task through its execution state machine.
type TaskStatus string

const (
	TaskStatusPlanned    TaskStatus = "planned"
	TaskStatusExecuting  TaskStatus = "executing"
	TaskStatusRetrying   TaskStatus = "retrying"
	TaskStatusEscalating TaskStatus = "escalating"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskResult is the final outcome of one task after retries and escalation.
// Created exactly once per task per orchestration; immutable afterwards.
type TaskResult struct {
	TaskID       string        `json:"task_id"`
	Backend      string        `json:"backend"`
	Success      bool          `json:"success"`
	Output       string        `json:"output,omitempty"`
	Error        string        `json:"error,omitempty"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Cost         float64       `json:"cost"`
	Duration     time.Duration `json:"duration"`
	Attempts     int           `json:"attempts"`
	Escalated    bool          `json:"escalated"`
}

// TaskEstimate is a pre-execution rating of one task: complexity tier,
// selected backend and heuristic cost.
type TaskEstimate struct {
	TaskID       string         `json:"task_id,omitempty"`
	Complexity   ComplexityTier `json:"complexity"`
	Backend      string         `json:"backend"`
	Cost         float64        `json:"cost"`
	InputTokens  int            `json:"input_tokens"`
	OutputTokens int            `json:"output_tokens"`
}

// ExecutionPlan is the validated output of the planning phase.
type ExecutionPlan struct {
	Tasks             []*Task       `json:"tasks"`
	EstimatedCost     float64       `json:"estimated_cost"`
	EstimatedDuration time.Duration `json:"estimated_duration"`
	Strategy          Strategy      `json:"strategy"`
}

// OrchestrationResult is the outcome of one end-to-end orchestration.
// Success is true iff every task result succeeded; a synthesized answer is
// present whenever planning succeeded, even under partial task failure.
type OrchestrationResult struct {
	ID          string                 `json:"id"`
	Request     string                 `json:"request"`
	Success     bool                   `json:"success"`
	Results     map[string]*TaskResult `json:"results"`
	TotalCost   float64                `json:"total_cost"`
	Duration    time.Duration          `json:"duration"`
	Answer      string                 `json:"answer"`
	Strategy    Strategy               `json:"strategy"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt time.Time              `json:"completed_at"`
}

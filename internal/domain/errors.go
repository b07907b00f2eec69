package domain

import "fmt"

// PlanningError aborts an orchestration before any task executes.
type PlanningError struct {
	Reason string
	Err    error
}

func (e *PlanningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("planning failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("planning failed: %s", e.Reason)
}

func (e *PlanningError) Unwrap() error { return e.Err }

// CycleError is raised when the task graph is not a DAG.
type CycleError struct {
	Remaining []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected among tasks %v", e.Remaining)
}

// TaskExecutionError describes a single failed backend attempt. It is
// always downgraded into a failed TaskResult and never aborts the
// orchestration.
type TaskExecutionError struct {
	TaskID  string
	Backend string
	Attempt int
	Err     error
}

func (e *TaskExecutionError) Error() string {
	return fmt.Sprintf("task %s failed on backend %s (attempt %d): %v",
		e.TaskID, e.Backend, e.Attempt, e.Err)
}

func (e *TaskExecutionError) Unwrap() error { return e.Err }

// SynthesisError degrades the final answer to a placeholder; it never
// changes OrchestrationResult.Success.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// ConfigurationError is fatal at startup, e.g. a backend registry with no
// enabled entries.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

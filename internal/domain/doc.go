// Package domain holds the core types shared across the orchestrator:
// tasks, task results, execution plans, backend descriptors, lifecycle
// events and the error taxonomy.
//
// Types here carry no behavior beyond small helpers; all orchestration
// logic lives in internal/application/orchestrator.
package domain

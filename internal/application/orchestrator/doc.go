// Package orchestrator implements the core orchestration engine.
//
// An orchestration runs in phases:
//   - The planner asks the planning backend to decompose a request into a
//     task graph and validates the reply.
//   - The classifier rates task complexity, selects backends by capability
//     tier and price, and estimates cost.
//   - The wave scheduler groups the task graph into ordered layers of
//     mutually independent tasks.
//   - The executor runs each task with bounded retries, exponential backoff
//     and a single escalation to a more capable backend.
//   - The synthesizer combines all task outputs into one answer.
//
// The manager ties the phases together, publishes lifecycle events and
// tracks in-flight orchestrations.
package orchestrator

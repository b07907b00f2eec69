package domain

import "time"

// EventType identifies an orchestration lifecycle event.
type EventType string

const (
	EventTypeOrchestrationStarted   EventType = "orchestration.started"
	EventTypeOrchestrationCompleted EventType = "orchestration.completed"
	EventTypeOrchestrationFailed    EventType = "orchestration.failed"
	EventTypeWaveStarted            EventType = "wave.started"
	EventTypeWaveCompleted          EventType = "wave.completed"
	EventTypeTaskStarted            EventType = "task.started"
	EventTypeTaskRetrying           EventType = "task.retrying"
	EventTypeTaskEscalating         EventType = "task.escalating"
	EventTypeTaskCompleted          EventType = "task.completed"
	EventTypeTaskFailed             EventType = "task.failed"
)

// Event is published on the event bus as an orchestration progresses.
type Event struct {
	ID              string                 `json:"id"`
	Type            EventType              `json:"type"`
	OrchestrationID string                 `json:"orchestration_id"`
	TaskID          string                 `json:"task_id,omitempty"`
	Timestamp       time.Time              `json:"timestamp"`
	Data            map[string]interface{} `json:"data,omitempty"`
}

package ports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/swellproject/swell/internal/domain"
)

// CompletionRequest is the uniform input to every inference backend.
// Context carries outputs of completed dependency tasks, keyed by task id.
type CompletionRequest struct {
	Prompt      string
	Context     map[string]string
	Model       string
	MaxTokens   int
	Temperature float64
}

// FullPrompt renders the prompt with dependency context prepended in a
// deterministic order.
func (r *CompletionRequest) FullPrompt() string {
	if len(r.Context) == 0 {
		return r.Prompt
	}

	keys := make([]string, 0, len(r.Context))
	for k := range r.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Context from completed subtasks:\n\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", k, r.Context[k])
	}
	b.WriteString("Task:\n")
	b.WriteString(r.Prompt)
	return b.String()
}

// CompletionResponse is the uniform output of every inference backend.
type CompletionResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Backend is the contract every inference provider adapter implements.
// The orchestrator treats all backends uniformly through it.
type Backend interface {
	// Complete sends a prompt and returns the generated text plus token
	// counts, or a provider error.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the registry name of this backend.
	Name() string
}

// EventHandler processes a single lifecycle event.
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus publishes orchestration lifecycle events to subscribers.
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}

// MetricsCollector records orchestration, task and LLM-call metrics.
type MetricsCollector interface {
	RecordOrchestration(status string, duration time.Duration)
	RecordTask(tier string, status string, duration time.Duration)
	RecordRetry(backend string)
	RecordEscalation(from, to string)
	RecordLLMCall(backend string, inputTokens, outputTokens int, cost float64, latency time.Duration)
	SetActiveOrchestrations(count int)
}

package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/swellproject/swell/internal/domain"
	"github.com/swellproject/swell/internal/ports"
	"github.com/swellproject/swell/internal/registry"
)

const synthesisPromptTemplate = `You are combining the results of several subtasks into one answer.

Original request:
%s

Subtask results:
%s

Write one cohesive answer to the original request based on the results
above. Mention gaps caused by failed subtasks only when they matter.`

// degradedAnswerPrefix starts the placeholder returned when synthesis
// itself fails; per-task outputs are still available in the result.
const degradedAnswerPrefix = "Synthesis unavailable; raw task outputs follow.\n\n"

// Synthesizer combines all task outputs into a single answer by calling
// the planning backend once more. Synthesis failure is recovered: it
// degrades the answer and never changes overall success.
type Synthesizer struct {
	registry *registry.Registry
	logger   *zap.Logger

	temperature float64
	maxTokens   int
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(reg *registry.Registry, logger *zap.Logger, temperature float64, maxTokens int) *Synthesizer {
	return &Synthesizer{
		registry:    reg,
		logger:      logger,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Synthesize returns the combined answer for a finished orchestration.
// On backend failure it returns a degraded placeholder built from the raw
// task outputs, together with the SynthesisError for logging.
func (s *Synthesizer) Synthesize(ctx context.Context, request string, tasks []*domain.Task, results map[string]*domain.TaskResult) (string, error) {
	planBackend := s.registry.Planner()
	client, ok := s.registry.Client(planBackend.Name)
	if !ok {
		err := &domain.SynthesisError{Err: fmt.Errorf("no client for planning backend %s", planBackend.Name)}
		return degradedAnswer(tasks, results), err
	}

	resp, err := client.Complete(ctx, &ports.CompletionRequest{
		Prompt:      fmt.Sprintf(synthesisPromptTemplate, request, formatResults(tasks, results)),
		Model:       planBackend.Model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		s.logger.Warn("synthesis call failed, degrading answer",
			zap.String("backend", planBackend.Name),
			zap.Error(err))
		return degradedAnswer(tasks, results), &domain.SynthesisError{Err: err}
	}

	return resp.Text, nil
}

// formatResults lists every task outcome, outputs and errors alike, for
// the synthesis prompt.
func formatResults(tasks []*domain.Task, results map[string]*domain.TaskResult) string {
	var b strings.Builder
	for _, t := range tasks {
		r, ok := results[t.ID]
		if !ok {
			continue
		}
		if r.Success {
			fmt.Fprintf(&b, "## %s (%s)\n%s\n\n", t.ID, t.Description, r.Output)
		} else {
			fmt.Fprintf(&b, "## %s (%s)\nFAILED: %s\n\n", t.ID, t.Description, r.Error)
		}
	}
	return b.String()
}

func degradedAnswer(tasks []*domain.Task, results map[string]*domain.TaskResult) string {
	return degradedAnswerPrefix + formatResults(tasks, results)
}

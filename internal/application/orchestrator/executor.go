package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swellproject/swell/internal/domain"
	"github.com/swellproject/swell/internal/ports"
	"github.com/swellproject/swell/internal/registry"
)

// Executor runs single tasks against inference backends with bounded
// retries and at most one escalation to a more capable backend.
type Executor struct {
	registry   *registry.Registry
	classifier *Classifier
	eventBus   ports.EventBus
	metrics    ports.MetricsCollector
	logger     *zap.Logger

	maxRetries        int
	retryBaseDelay    time.Duration
	escalationEnabled bool

	maxTokens   int
	temperature float64
}

// NewExecutor creates an executor.
func NewExecutor(
	reg *registry.Registry,
	classifier *Classifier,
	eventBus ports.EventBus,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	maxRetries int,
	retryBaseDelay time.Duration,
	escalationEnabled bool,
	maxTokens int,
	temperature float64,
) *Executor {
	return &Executor{
		registry:          reg,
		classifier:        classifier,
		eventBus:          eventBus,
		metrics:           metrics,
		logger:            logger,
		maxRetries:        maxRetries,
		retryBaseDelay:    retryBaseDelay,
		escalationEnabled: escalationEnabled,
		maxTokens:         maxTokens,
		temperature:       temperature,
	}
}

// ExecuteTask runs one task to completion and returns its final result.
// Task-level failures never surface as errors; after retries and escalation
// are exhausted they become a TaskResult with Success set to false.
//
// Outputs of successful dependencies are injected into the task context
// before execution. Outputs of failed dependencies are omitted and the task
// still runs with whatever context is available.
func (e *Executor) ExecuteTask(ctx context.Context, orchestrationID string, task *domain.Task, previous map[string]*domain.TaskResult) *domain.TaskResult {
	injectDependencyContext(task, previous)

	start := time.Now()

	backend, err := e.classifier.SelectBackend(task)
	if err != nil {
		return &domain.TaskResult{
			TaskID:   task.ID,
			Success:  false,
			Error:    err.Error(),
			Duration: time.Since(start),
		}
	}

	e.publishEvent(ctx, orchestrationID, task.ID, domain.EventTypeTaskStarted, map[string]interface{}{
		"backend": backend.Name,
	})

	status := domain.TaskStatusExecuting
	current := backend
	escalated := false
	attempts := 0

	var result *domain.TaskResult
	var lastErr error

	for status != domain.TaskStatusCompleted {
		switch status {
		case domain.TaskStatusExecuting:
			attempts++
			resp, callErr := e.callBackend(ctx, current, task)
			if callErr == nil {
				result = &domain.TaskResult{
					TaskID:       task.ID,
					Backend:      current.Name,
					Success:      true,
					Output:       resp.Text,
					InputTokens:  resp.InputTokens,
					OutputTokens: resp.OutputTokens,
					Cost:         current.Cost(resp.InputTokens, resp.OutputTokens),
					Attempts:     attempts,
					Escalated:    escalated,
				}
				status = domain.TaskStatusCompleted
				continue
			}

			lastErr = &domain.TaskExecutionError{
				TaskID:  task.ID,
				Backend: current.Name,
				Attempt: attempts,
				Err:     callErr,
			}
			e.logger.Warn("task attempt failed",
				zap.String("orchestration_id", orchestrationID),
				zap.String("task_id", task.ID),
				zap.String("backend", current.Name),
				zap.Int("attempt", attempts),
				zap.Error(callErr))

			switch {
			case !escalated && attempts < e.maxRetries:
				status = domain.TaskStatusRetrying
			case !escalated && e.escalationEnabled && e.classifier.FallbackBackend(current) != nil:
				status = domain.TaskStatusEscalating
			default:
				result = &domain.TaskResult{
					TaskID:    task.ID,
					Backend:   current.Name,
					Success:   false,
					Error:     lastErr.Error(),
					Attempts:  attempts,
					Escalated: escalated,
				}
				status = domain.TaskStatusCompleted
			}

		case domain.TaskStatusRetrying:
			e.metrics.RecordRetry(current.Name)
			e.publishEvent(ctx, orchestrationID, task.ID, domain.EventTypeTaskRetrying, map[string]interface{}{
				"backend": current.Name,
				"attempt": attempts,
			})
			if err := sleepContext(ctx, e.backoff(attempts)); err != nil {
				result = &domain.TaskResult{
					TaskID:    task.ID,
					Backend:   current.Name,
					Success:   false,
					Error:     err.Error(),
					Attempts:  attempts,
					Escalated: escalated,
				}
				status = domain.TaskStatusCompleted
				continue
			}
			status = domain.TaskStatusExecuting

		case domain.TaskStatusEscalating:
			fallback := e.classifier.FallbackBackend(current)
			e.metrics.RecordEscalation(current.Name, fallback.Name)
			e.publishEvent(ctx, orchestrationID, task.ID, domain.EventTypeTaskEscalating, map[string]interface{}{
				"from": current.Name,
				"to":   fallback.Name,
			})
			e.logger.Info("escalating task to more capable backend",
				zap.String("orchestration_id", orchestrationID),
				zap.String("task_id", task.ID),
				zap.String("from", current.Name),
				zap.String("to", fallback.Name))
			current = fallback
			escalated = true
			status = domain.TaskStatusExecuting
		}
	}

	result.Duration = time.Since(start)

	eventType := domain.EventTypeTaskCompleted
	taskStatus := "success"
	if !result.Success {
		eventType = domain.EventTypeTaskFailed
		taskStatus = "failure"
	}
	e.publishEvent(ctx, orchestrationID, task.ID, eventType, map[string]interface{}{
		"backend":  result.Backend,
		"attempts": result.Attempts,
		"cost":     result.Cost,
	})
	e.metrics.RecordTask(string(task.Complexity), taskStatus, result.Duration)

	return result
}

// ExecuteWave runs every task of a wave concurrently and returns their
// results in task order. The wave resolves only once all tasks have a
// result, success or failure.
func (e *Executor) ExecuteWave(ctx context.Context, orchestrationID string, wave []*domain.Task, previous map[string]*domain.TaskResult) []*domain.TaskResult {
	results := make([]*domain.TaskResult, len(wave))

	done := make(chan struct{})
	pending := len(wave)
	for i, task := range wave {
		go func(i int, task *domain.Task) {
			results[i] = e.ExecuteTask(ctx, orchestrationID, task, previous)
			done <- struct{}{}
		}(i, task)
	}
	for ; pending > 0; pending-- {
		<-done
	}

	return results
}

// callBackend performs a single inference call, recording LLM metrics on
// success.
func (e *Executor) callBackend(ctx context.Context, backend *domain.BackendConfig, task *domain.Task) (*ports.CompletionResponse, error) {
	client, ok := e.registry.Client(backend.Name)
	if !ok {
		return nil, &domain.ConfigurationError{Reason: "no client bound for backend " + backend.Name}
	}

	start := time.Now()
	resp, err := client.Complete(ctx, &ports.CompletionRequest{
		Prompt:      task.Prompt,
		Context:     task.Context,
		Model:       backend.Model,
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		return nil, err
	}

	e.metrics.RecordLLMCall(backend.Name, resp.InputTokens, resp.OutputTokens,
		backend.Cost(resp.InputTokens, resp.OutputTokens), time.Since(start))
	return resp, nil
}

// backoff returns the exponential delay before the next attempt:
// baseDelay * 2^attempt.
func (e *Executor) backoff(attempt int) time.Duration {
	return e.retryBaseDelay * (1 << uint(attempt))
}

func (e *Executor) publishEvent(ctx context.Context, orchestrationID, taskID string, eventType domain.EventType, data map[string]interface{}) {
	event := domain.Event{
		ID:              uuid.New().String(),
		Type:            eventType,
		OrchestrationID: orchestrationID,
		TaskID:          taskID,
		Timestamp:       time.Now(),
		Data:            data,
	}
	if err := e.eventBus.Publish(ctx, "task.events", event); err != nil {
		e.logger.Error("failed to publish task event",
			zap.String("task_id", taskID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}

// injectDependencyContext copies the outputs of successful dependencies
// into the task context. Failed dependencies contribute nothing and the
// task still executes with what remains.
func injectDependencyContext(task *domain.Task, previous map[string]*domain.TaskResult) {
	if task.Context == nil {
		task.Context = make(map[string]string, len(task.DependsOn))
	}
	for _, dep := range task.DependsOn {
		if r, ok := previous[dep]; ok && r.Success {
			task.Context[dep] = r.Output
		}
	}
}

// sleepContext waits for the given duration or until the context ends.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

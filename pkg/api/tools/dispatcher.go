// Package tools exposes the orchestrator to calling hosts as a small set
// of named tools with JSON arguments.
//
// Hosts send {toolName, arguments} pairs; every reply is text content plus
// an error flag. The concrete host protocol stays outside this module.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/swellproject/swell/internal/application/orchestrator"
	"github.com/swellproject/swell/internal/domain"
)

// Tool names accepted by the dispatcher.
const (
	ToolOrchestrate  = "orchestrate"
	ToolClassify     = "classify"
	ToolEstimateCost = "estimate_cost"
	ToolListModels   = "list_models"
)

// Result is the uniform tool reply: serialized content plus an error flag.
type Result struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}

// Dispatcher routes tool calls to the orchestration manager.
type Dispatcher struct {
	manager *orchestrator.Manager
	logger  *zap.Logger
}

// NewDispatcher creates a tool dispatcher.
func NewDispatcher(manager *orchestrator.Manager, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{manager: manager, logger: logger}
}

type orchestrateArgs struct {
	Request  string          `json:"request"`
	Strategy domain.Strategy `json:"strategy,omitempty"`
}

type estimateArgs struct {
	Request string `json:"request"`
}

// Dispatch invokes one tool by name. Failures are returned as data, never
// as a Go error, so hosts always receive a well-formed reply.
func (d *Dispatcher) Dispatch(ctx context.Context, toolName string, arguments json.RawMessage) *Result {
	d.logger.Debug("tool call", zap.String("tool", toolName))

	switch toolName {
	case ToolOrchestrate:
		var args orchestrateArgs
		if err := json.Unmarshal(arguments, &args); err != nil {
			return errorResult(fmt.Errorf("invalid arguments: %w", err))
		}
		if args.Request == "" {
			return errorResult(fmt.Errorf("request is required"))
		}
		result, err := d.manager.Orchestrate(ctx, args.Request, &orchestrator.OrchestrateOptions{
			Strategy: args.Strategy,
		})
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(result)

	case ToolClassify:
		var task domain.Task
		if err := json.Unmarshal(arguments, &task); err != nil {
			return errorResult(fmt.Errorf("invalid arguments: %w", err))
		}
		estimate, err := d.manager.Classify(&task)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(estimate)

	case ToolEstimateCost:
		var args estimateArgs
		if err := json.Unmarshal(arguments, &args); err != nil {
			return errorResult(fmt.Errorf("invalid arguments: %w", err))
		}
		if args.Request == "" {
			return errorResult(fmt.Errorf("request is required"))
		}
		plan, err := d.manager.EstimatePlan(ctx, args.Request)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(plan)

	case ToolListModels:
		return jsonResult(d.manager.ListBackends())

	default:
		return errorResult(fmt.Errorf("unknown tool: %s", toolName))
	}
}

func jsonResult(v interface{}) *Result {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(fmt.Errorf("failed to serialize result: %w", err))
	}
	return &Result{Content: string(data)}
}

func errorResult(err error) *Result {
	return &Result{Content: err.Error(), IsError: true}
}

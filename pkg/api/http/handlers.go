package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/swellproject/swell/internal/application/orchestrator"
	"github.com/swellproject/swell/internal/domain"
)

// OrchestrateRequest is the body of an orchestration submission.
type OrchestrateRequest struct {
	Request  string          `json:"request" binding:"required"`
	Strategy domain.Strategy `json:"strategy,omitempty"`
}

// EstimateRequest is the body of a cost estimation call.
type EstimateRequest struct {
	Request string `json:"request" binding:"required"`
}

// ToolCallRequest is the body of a host tool invocation.
type ToolCallRequest struct {
	ToolName  string          `json:"tool_name" binding:"required"`
	Arguments json.RawMessage `json:"arguments"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"checks": gin.H{
			"orchestrator": "ok",
		},
	})
}

// handleOrchestrate runs one orchestration to completion.
func (s *Server) handleOrchestrate(c *gin.Context) {
	var req OrchestrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Error("invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	result, err := s.manager.Orchestrate(c.Request.Context(), req.Request, &orchestrator.OrchestrateOptions{
		Strategy: req.Strategy,
	})
	if err != nil {
		s.logger.Error("orchestration failed", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    errorCode(err),
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleGetOrchestration returns the status of an in-flight orchestration.
func (s *Server) handleGetOrchestration(c *gin.Context) {
	status, err := s.manager.GetExecution(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "Orchestration not found or already completed",
			},
		})
		return
	}

	c.JSON(http.StatusOK, status)
}

// handleClassify rates a single task without executing it.
func (s *Server) handleClassify(c *gin.Context) {
	var task domain.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	estimate, err := s.manager.Classify(&task)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    errorCode(err),
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// handleEstimate plans a request without executing it.
func (s *Server) handleEstimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	plan, err := s.manager.EstimatePlan(c.Request.Context(), req.Request)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    errorCode(err),
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, plan)
}

// handleListModels lists all backend registry entries.
func (s *Server) handleListModels(c *gin.Context) {
	backends := s.manager.ListBackends()
	c.JSON(http.StatusOK, gin.H{
		"models": backends,
		"total":  len(backends),
	})
}

// handleToolCall dispatches a host tool invocation.
func (s *Server) handleToolCall(c *gin.Context) {
	var req ToolCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	result := s.dispatcher.Dispatch(c.Request.Context(), req.ToolName, req.Arguments)
	c.JSON(http.StatusOK, result)
}

// errorCode maps domain errors to stable API error codes.
func errorCode(err error) string {
	var planErr *domain.PlanningError
	var cycleErr *domain.CycleError
	var confErr *domain.ConfigurationError

	switch {
	case errors.As(err, &planErr):
		return "PLANNING_FAILED"
	case errors.As(err, &cycleErr):
		return "DEPENDENCY_CYCLE"
	case errors.As(err, &confErr):
		return "CONFIGURATION_ERROR"
	default:
		return "ORCHESTRATION_FAILED"
	}
}

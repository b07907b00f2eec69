// Package http provides the REST API for the swell orchestrator using the
// Gin framework. It exposes orchestration submission, task classification,
// cost estimation, the backend catalog, the host tool surface, health
// checks and Prometheus metrics.
package http

// Package ports defines the interfaces between the orchestration core and
// its adapters: inference backends, event buses and metrics collectors.
// Concrete implementations live under pkg/adapters.
package ports

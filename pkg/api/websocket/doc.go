// Package websocket streams orchestration lifecycle events to connected
// clients, one connection per orchestration id.
package websocket

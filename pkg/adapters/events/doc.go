// Package events groups the event bus implementations: an in-process bus
// for single-node deployments and tests, and a Redis Streams bus for
// cross-process consumers.
package events

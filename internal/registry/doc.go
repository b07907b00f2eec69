// Package registry loads the backend registry document and binds provider
// clients to its entries.
//
// The document is an ordered YAML list of backends with capability tags and
// per-million token pricing, plus an optional designated planner backend.
// The registry is immutable after construction.
package registry

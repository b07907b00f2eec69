// Package llm provides inference backend client implementations.
//
// The factory creates one client per enabled registry entry based on its
// provider field. Currently supported:
//   - Anthropic Claude
//   - OpenAI GPT
package llm

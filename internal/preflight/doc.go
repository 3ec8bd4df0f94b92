// Package preflight provides readiness checks for the external tools,
// working directories, and text generation API shortsmith depends on.
//
// These checks run in two contexts:
//   - "shortsmith serve" calls RunAll before binding the listener and refuses
//     to start when a required check fails.
//   - "shortsmith status" renders the same results, plus the LLM and history
//     summaries from runtime_status.go, as a table.
//
// The LLM check only runs when an API key is configured.
package preflight

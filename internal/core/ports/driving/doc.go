// Package driving defines the inbound port of the harvest core.
// The CLI, HTTP API and TUI adapters drive the pipeline through it.
package driving

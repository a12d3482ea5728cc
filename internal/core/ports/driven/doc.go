// Package driven defines the outbound ports of the harvest core:
// discovery strategies, the HTTP fetcher, the archive writer and the
// configuration store. Adapters implement these interfaces.
package driven

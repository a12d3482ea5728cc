// Package services implements the harvest pipeline core: candidate
// normalisation and dedup, the concurrent acquisition engine, archive
// layout, and the batch/streaming orchestrator with its progress
// reporting protocol.
package services

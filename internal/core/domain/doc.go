// Package domain holds the core entities of the harvest pipeline:
// candidate and resolved assets, fetched bytes, archive entries,
// progress events and the sentinel errors of the outcome taxonomy.
//
// Everything here is owned by a single run; nothing persists or is
// shared across invocations.
package domain

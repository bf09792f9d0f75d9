// Package uuidx generates the identifiers used across the fabric: subscription
// ids, message ids, queue item ids and correlation keys.
//
// Identifiers are UUIDv7 so they sort by creation time, which keeps debug
// snapshots and logs readable.
package uuidx

import "github.com/google/uuid"

// New generates a new version 7 UUID.
// It panics if the random source fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString generates a new version 7 UUID and returns its canonical string form.
func NewString() string {
	return New().String()
}

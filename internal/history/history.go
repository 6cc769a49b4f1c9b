// Package history holds shared constants for the finished-job history stores.
package history

// DefaultCap bounds the retained history; insertion beyond the cap evicts the
// oldest records.
const DefaultCap = 50

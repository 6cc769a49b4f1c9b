// Package progress defines the normalized event protocol between the running
// download job and its observer: the typed Event union, the normalizer that
// translates raw extractor signals into events, and the single-consumer
// delivery channel with heartbeat synthesis.
package progress

// Package services provides shared error classification markers and context
// carriers used across the resolution pipeline.
//
// Errors produced by pipeline stages are tagged with a sentinel marker via
// Wrap so the batch coordinator can bucket failures (retry vs. manual
// attention) with errors.Is instead of string matching.
package services

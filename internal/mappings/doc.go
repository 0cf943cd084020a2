// Package mappings persists confirmed title-to-MAL-ID resolutions in a
// sorted, fully quoted CSV table so outcomes are never re-computed.
package mappings
